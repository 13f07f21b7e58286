package utils

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns an HTTP client with connection pooling and sane timeouts.
// The bot shares one client between the Discord session and the attachment fetcher.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   10, // Limit idle connections per host
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout, // Overall request timeout
	}
}
