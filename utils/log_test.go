package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, _, err := NewLogger("chatty", ""); err == nil {
		t.Fatal("expected error for unknown level")
	}
	log, hook, err := NewLogger("debug", "")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", log.GetLevel())
	}
	if hook != nil {
		t.Fatal("no hook expected without a webhook URL")
	}
	hook.Close(time.Second)
}

func TestWebhookHookPostsWarnings(t *testing.T) {
	payloads := make(chan DiscordWebhookPayload, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p DiscordWebhookPayload
		if err := json.Unmarshal(body, &p); err != nil {
			t.Errorf("bad payload %s: %v", body, err)
		}
		payloads <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log, hook, err := NewLogger("info", srv.URL)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer hook.Close(time.Second)
	log.SetOutput(io.Discard)

	log.Info("not forwarded")
	log.WithFields(logrus.Fields{"schedule_id": 3, "user_id": "42"}).WithError(errors.New("user not found")).Warn("Failed to send scheduled DM")

	select {
	case p := <-payloads:
		if len(p.Embeds) != 1 {
			t.Fatalf("embeds = %d", len(p.Embeds))
		}
		embed := p.Embeds[0]
		if embed.Title != "WARNING Log" || embed.Color != 15105570 {
			t.Errorf("unexpected embed header: %+v", embed)
		}
		var names []string
		for _, f := range embed.Fields {
			names = append(names, f.Name)
		}
		if got := strings.Join(names, ","); got != "Message,error,schedule_id,user_id" {
			t.Errorf("fields = %s", got)
		}
		if embed.Fields[0].Value != "Failed to send scheduled DM" {
			t.Errorf("message field = %q", embed.Fields[0].Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("warning was not posted to the webhook")
	}

	select {
	case p := <-payloads:
		t.Fatalf("unexpected extra payload: %+v", p)
	default:
	}
}

func TestWebhookHookReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	hook := NewWebhookHook(srv.URL, NewHTTPClient(5*time.Second))
	defer hook.Close(time.Second)
	err := hook.post(DiscordWebhookPayload{Embeds: []DiscordEmbed{buildEmbed(logrus.NewEntry(logrus.New()).WithField("k", "v"))}})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v", err)
	}
}

func TestWebhookHookDoesNotBlockLogging(t *testing.T) {
	release := make(chan struct{})
	received := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		received <- struct{}{}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	log, hook, err := NewLogger("info", srv.URL)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.SetOutput(io.Discard)

	start := time.Now()
	for n := 0; n < 3; n++ {
		log.WithField("schedule_id", n).Warn("Failed to send scheduled DM")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("logging waited %s on a stalled webhook", elapsed)
	}

	close(release)
	hook.Close(5 * time.Second)
	if got := len(received); got != 3 {
		t.Fatalf("webhook received %d entries after close, want 3", got)
	}
}

func TestWebhookHookDropsWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	defer close(release)

	hook := NewWebhookHook(srv.URL, NewHTTPClient(5*time.Second))
	entry := logrus.NewEntry(logrus.New())
	entry.Level = logrus.ErrorLevel

	done := make(chan struct{})
	go func() {
		for n := 0; n < webhookQueueSize*2; n++ {
			_ = hook.Fire(entry)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Fire blocked on a full queue")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate(strings.Repeat("a", 20), 10); got != "aaaaaaa..." {
		t.Errorf("got %q", got)
	}
}
