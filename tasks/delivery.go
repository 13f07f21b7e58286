package tasks

import (
	"context"
	"dm-scheduler/model"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBatchSize is how many due schedules one poll tick handles.
const DefaultBatchSize = 30

// ScheduleStore is the subset of the schedule store the dispatcher needs.
type ScheduleStore interface {
	FetchDue(ctx context.Context, now time.Time, limit int) ([]model.Schedule, error)
	Claim(ctx context.Context, id int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.ScheduleStatus) error
}

// Fetcher downloads an attachment.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Attachment, error)
}

// Messenger resolves a user and sends them a direct message.
type Messenger interface {
	SendDirectMessage(userID, content string, file *model.Attachment) error
}

// Dispatcher delivers schedules, one at a time, recording the outcome of each.
type Dispatcher struct {
	store     ScheduleStore
	fetcher   Fetcher
	messenger Messenger
	log       logrus.FieldLogger
	batchSize int
}

// NewDispatcher creates a dispatcher. A non-positive batchSize falls back to DefaultBatchSize.
func NewDispatcher(store ScheduleStore, fetcher Fetcher, messenger Messenger, log logrus.FieldLogger, batchSize int) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Dispatcher{
		store:     store,
		fetcher:   fetcher,
		messenger: messenger,
		log:       log,
		batchSize: batchSize,
	}
}

// Send delivers content to userID right away. When attachmentURL is set the file is
// downloaded first and sent in the same message as the text.
func (d *Dispatcher) Send(ctx context.Context, userID, content, attachmentURL string) error {
	var file *model.Attachment
	if attachmentURL != "" {
		f, err := d.fetcher.Fetch(ctx, attachmentURL)
		if err != nil {
			return err
		}
		file = f
	}
	return d.messenger.SendDirectMessage(userID, content, file)
}

// ProcessDue delivers every schedule due at now, up to the batch size, in run_at order.
// It returns the number of schedules attempted. Only a failure to query due schedules is
// returned; per-schedule failures are recorded and logged.
func (d *Dispatcher) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.FetchDue(ctx, now, d.batchSize)
	if err != nil {
		return 0, err
	}

	for _, sc := range due {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		d.Deliver(ctx, sc)
	}
	return len(due), nil
}

// Deliver sends one schedule and marks it sent or failed. A schedule that is no longer
// pending when claimed (canceled meanwhile) is skipped.
func (d *Dispatcher) Deliver(ctx context.Context, sc model.Schedule) {
	entry := d.log.WithFields(logrus.Fields{
		"schedule_id": sc.ID,
		"user_id":     sc.UserID,
	})

	claimed, err := d.store.Claim(ctx, sc.ID)
	if err != nil {
		entry.WithError(err).Error("Failed to claim schedule")
		return
	}
	if !claimed {
		entry.Info("Schedule is no longer pending, skipping")
		return
	}

	if err := d.Send(ctx, sc.UserID, sc.Content(), sc.AttachmentURL.String); err != nil {
		entry.WithError(err).Warn("Failed to send scheduled DM")
		d.record(ctx, entry, sc.ID, model.StatusFailed)
		return
	}

	entry.Info("Scheduled DM sent")
	d.record(ctx, entry, sc.ID, model.StatusSent)
}

func (d *Dispatcher) record(ctx context.Context, entry logrus.FieldLogger, id int64, status model.ScheduleStatus) {
	// The outcome must be written even if the tick's context was canceled mid-send.
	ctx = context.WithoutCancel(ctx)
	if err := d.store.UpdateStatus(ctx, id, status); err != nil {
		entry.WithError(err).WithField("status", status).Error("Failed to record schedule status")
	}
}
