package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type DiscordEmbed struct {
	Title  string              `json:"title"`
	Color  int                 `json:"color"`
	Fields []DiscordEmbedField `json:"fields"`
}

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

// WebhookTimeout bounds a single webhook POST.
const WebhookTimeout = 5 * time.Second

// webhookQueueSize is how many entries may wait for the webhook before new ones are dropped.
const webhookQueueSize = 64

// NewLogger builds the process logger. When webhookURL is set, warnings and errors
// are mirrored to that Discord webhook and the returned hook must be closed on shutdown.
func NewLogger(level, webhookURL string) (*logrus.Logger, *WebhookHook, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var hook *WebhookHook
	if webhookURL != "" {
		hook = NewWebhookHook(webhookURL, NewHTTPClient(WebhookTimeout))
		log.AddHook(hook)
	}
	return log, hook, nil
}

// WebhookHook posts log entries as Discord embeds. Entries are queued and posted by a
// single background goroutine so logging never waits on the webhook.
type WebhookHook struct {
	url     string
	client  *http.Client
	queue   chan DiscordWebhookPayload
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

func NewWebhookHook(url string, client *http.Client) *WebhookHook {
	h := &WebhookHook{
		url:    url,
		client: client,
		queue:  make(chan DiscordWebhookPayload, webhookQueueSize),
		done:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *WebhookHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

// Fire queues entry for delivery. When the queue is full the entry is dropped.
func (h *WebhookHook) Fire(entry *logrus.Entry) error {
	payload := DiscordWebhookPayload{Embeds: []DiscordEmbed{buildEmbed(entry)}}

	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	if h.closed {
		return nil
	}
	select {
	case h.queue <- payload:
	default:
		fmt.Fprintln(os.Stderr, "log webhook queue full, dropping entry")
	}
	return nil
}

// Close stops accepting entries and waits up to timeout for queued ones to be posted.
func (h *WebhookHook) Close(timeout time.Duration) {
	if h == nil {
		return
	}
	h.closeMu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.closeMu.Unlock()

	select {
	case <-h.done:
	case <-time.After(timeout):
	}
}

func (h *WebhookHook) run() {
	defer close(h.done)
	for payload := range h.queue {
		if err := h.post(payload); err != nil {
			fmt.Fprintf(os.Stderr, "failed to post log to webhook: %v\n", err)
		}
	}
}

func (h *WebhookHook) post(payload DiscordWebhookPayload) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, h.url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to send log to discord, status: %s, body: %s", resp.Status, string(body))
	}
	return nil
}

func buildEmbed(entry *logrus.Entry) DiscordEmbed {
	fields := []DiscordEmbedField{{Name: "Message", Value: truncate(entry.Message, 1024)}}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, DiscordEmbedField{
			Name:   k,
			Value:  truncate(fmt.Sprint(entry.Data[k]), 1024),
			Inline: k != logrus.ErrorKey,
		})
	}

	return DiscordEmbed{
		Title:  strings.ToUpper(entry.Level.String()) + " Log",
		Color:  getColor(entry.Level),
		Fields: fields,
	}
}

func getColor(level logrus.Level) int {
	switch level {
	case logrus.InfoLevel:
		return 3066993 // Green
	case logrus.WarnLevel:
		return 15105570 // Orange
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return 15158332 // Red
	default:
		return 3447003 // Blue
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
