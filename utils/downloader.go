package utils

import (
	"context"
	"dm-scheduler/model"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// MaxAttachmentSize is the largest file forwarded in a direct message (Discord's default upload limit).
const MaxAttachmentSize = 25 << 20

const defaultFileName = "file"

// AttachmentFetcher downloads attachment bytes so they can be re-uploaded to a DM.
type AttachmentFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewAttachmentFetcher creates a fetcher using client.
func NewAttachmentFetcher(client *http.Client) *AttachmentFetcher {
	return &AttachmentFetcher{client: client, maxSize: MaxAttachmentSize}
}

// Fetch retrieves rawURL into memory. Any transport failure or non-2xx response is a *model.DownloadError.
func (f *AttachmentFetcher) Fetch(ctx context.Context, rawURL string) (*model.Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.DownloadError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &model.DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.DownloadError{URL: rawURL, Err: fmt.Errorf("bad status: %s", resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, &model.DownloadError{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(data)) > f.maxSize {
		return nil, &model.DownloadError{URL: rawURL, Err: fmt.Errorf("file exceeds %d bytes", f.maxSize)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &model.Attachment{
		Name:        FileNameFromURL(rawURL),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// FileNameFromURL returns the last path segment of rawURL without its query string,
// or a generic name when the path has none.
func FileNameFromURL(rawURL string) string {
	p := strings.SplitN(rawURL, "?", 2)[0]
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return defaultFileName
	}
	return path.Base(p)
}
