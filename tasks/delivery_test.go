package tasks

import (
	"context"
	"dm-scheduler/model"
	"dm-scheduler/utils"
	"dm-scheduler/utils/database"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type sentMessage struct {
	userID  string
	content string
	file    *model.Attachment
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (m *fakeMessenger) SendDirectMessage(userID, content string, file *model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return &model.DeliveryError{UserID: userID, Err: m.err}
	}
	m.sent = append(m.sent, sentMessage{userID: userID, content: content, file: file})
	return nil
}

func openStore(t *testing.T) *database.ScheduleStore {
	t.Helper()
	store, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "dispatch.db"), 5)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDispatcher(t *testing.T, store ScheduleStore, messenger Messenger) (*Dispatcher, *logtest.Hook) {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	fetcher := utils.NewAttachmentFetcher(utils.NewHTTPClient(5 * time.Second))
	return NewDispatcher(store, fetcher, messenger, log, 0), hook
}

func TestProcessDueDeliversScheduledMessage(t *testing.T) {
	store := openStore(t)
	messenger := &fakeMessenger{}
	d, _ := newTestDispatcher(t, store, messenger)
	ctx := context.Background()

	// "11:59 PM" entered at 23:58 local lands one minute ahead.
	loc := time.FixedZone("AST", 3*60*60)
	now := time.Date(2024, time.January, 1, 23, 58, 0, 0, loc)
	runAt, err := utils.ParseTime12h("11:59 PM", now, loc)
	if err != nil {
		t.Fatalf("ParseTime12h: %v", err)
	}
	id, err := store.Create(ctx, "42", runAt, "hi", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	n, err := d.ProcessDue(ctx, now)
	if err != nil || n != 0 {
		t.Fatalf("early tick: n=%d err=%v", n, err)
	}
	if len(messenger.sent) != 0 {
		t.Fatal("message delivered before run_at")
	}

	n, err = d.ProcessDue(ctx, runAt.Add(30*time.Second))
	if err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed %d, want 1", n)
	}
	if len(messenger.sent) != 1 || messenger.sent[0].userID != "42" || messenger.sent[0].content != "hi" || messenger.sent[0].file != nil {
		t.Fatalf("unexpected deliveries: %+v", messenger.sent)
	}

	sc, _ := store.Get(ctx, id)
	if sc.Status != model.StatusSent {
		t.Fatalf("status = %s, want sent", sc.Status)
	}

	// A sent schedule is never picked up again.
	if n, _ := d.ProcessDue(ctx, runAt.Add(time.Hour)); n != 0 {
		t.Fatalf("sent schedule processed again")
	}
}

func TestProcessDueBrokenAttachmentFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	store := openStore(t)
	messenger := &fakeMessenger{}
	d, hook := newTestDispatcher(t, store, messenger)
	ctx := context.Background()
	now := time.Now()

	id, _ := store.Create(ctx, "7", now.Add(-time.Minute), "with file", srv.URL+"/gone.png")

	if _, err := d.ProcessDue(ctx, now); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}
	if len(messenger.sent) != 0 {
		t.Fatalf("message must not be sent without its attachment: %+v", messenger.sent)
	}
	sc, _ := store.Get(ctx, id)
	if sc.Status != model.StatusFailed {
		t.Fatalf("status = %s, want failed", sc.Status)
	}

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["schedule_id"] == id && e.Data["user_id"] == "7" && e.Data[logrus.ErrorKey] != nil {
			logged = true
		}
	}
	if !logged {
		t.Fatal("failure was not logged with schedule_id, user_id and error")
	}
}

func TestProcessDueAttachmentIsSentWithText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	store := openStore(t)
	messenger := &fakeMessenger{}
	d, _ := newTestDispatcher(t, store, messenger)
	ctx := context.Background()
	now := time.Now()

	id, _ := store.Create(ctx, "9", now.Add(-time.Second), "", srv.URL+"/files/cat.png?ex=1")
	if _, err := d.ProcessDue(ctx, now); err != nil {
		t.Fatalf("ProcessDue: %v", err)
	}

	if len(messenger.sent) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(messenger.sent))
	}
	got := messenger.sent[0]
	if got.content != "" || got.file == nil || got.file.Name != "cat.png" || string(got.file.Data) != "png-bytes" {
		t.Fatalf("unexpected delivery: %+v", got)
	}
	if sc, _ := store.Get(ctx, id); sc.Status != model.StatusSent {
		t.Fatalf("status = %s, want sent", sc.Status)
	}
}

func TestProcessDueIsolatesFailures(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	now := time.Now()

	first, _ := store.Create(ctx, "blocked", now.Add(-2*time.Minute), "a", "")
	second, _ := store.Create(ctx, "ok", now.Add(-time.Minute), "b", "")

	messenger := &selectiveMessenger{fail: map[string]bool{"blocked": true}}
	d, _ := newTestDispatcher(t, store, messenger)

	n, err := d.ProcessDue(ctx, now)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if sc, _ := store.Get(ctx, first); sc.Status != model.StatusFailed {
		t.Errorf("first status = %s, want failed", sc.Status)
	}
	if sc, _ := store.Get(ctx, second); sc.Status != model.StatusSent {
		t.Errorf("second status = %s, want sent", sc.Status)
	}
	if len(messenger.order) != 2 || messenger.order[0] != "blocked" || messenger.order[1] != "ok" {
		t.Errorf("delivery order = %v", messenger.order)
	}
}

func TestDeliverSkipsCanceledSchedule(t *testing.T) {
	store := openStore(t)
	messenger := &fakeMessenger{}
	d, _ := newTestDispatcher(t, store, messenger)
	ctx := context.Background()

	id, _ := store.Create(ctx, "u", time.Now().Add(-time.Minute), "late", "")
	due, err := store.FetchDue(ctx, time.Now(), 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("FetchDue: %v %v", due, err)
	}

	// Canceled between the fetch and the delivery.
	if ok, _ := store.Cancel(ctx, id); !ok {
		t.Fatal("cancel failed")
	}
	d.Deliver(ctx, due[0])

	if len(messenger.sent) != 0 {
		t.Fatal("canceled schedule was delivered")
	}
	if sc, _ := store.Get(ctx, id); sc.Status != model.StatusCanceled {
		t.Fatalf("status = %s, want canceled", sc.Status)
	}
}

func TestProcessDueReturnsStoreError(t *testing.T) {
	d, _ := newTestDispatcher(t, failingStore{}, &fakeMessenger{})
	_, err := d.ProcessDue(context.Background(), time.Now())
	var storageErr *model.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestSendReportsDeliveryError(t *testing.T) {
	d, _ := newTestDispatcher(t, failingStore{}, &fakeMessenger{err: errors.New("cannot send messages to this user")})
	err := d.Send(context.Background(), "1", "hello", "")
	var deliveryErr *model.DeliveryError
	if !errors.As(err, &deliveryErr) || deliveryErr.UserID != "1" {
		t.Fatalf("expected DeliveryError for user 1, got %v", err)
	}
}

type selectiveMessenger struct {
	fail  map[string]bool
	order []string
}

func (m *selectiveMessenger) SendDirectMessage(userID, content string, file *model.Attachment) error {
	m.order = append(m.order, userID)
	if m.fail[userID] {
		return &model.DeliveryError{UserID: userID, Err: errors.New("user not found")}
	}
	return nil
}

type failingStore struct{}

func (failingStore) FetchDue(context.Context, time.Time, int) ([]model.Schedule, error) {
	return nil, &model.StorageError{Op: "fetch due schedules", Err: errors.New("database is locked")}
}

func (failingStore) Claim(context.Context, int64) (bool, error) { return false, nil }

func (failingStore) UpdateStatus(context.Context, int64, model.ScheduleStatus) error { return nil }
