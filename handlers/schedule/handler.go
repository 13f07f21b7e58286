package schedule

import (
	"context"
	"dm-scheduler/model"
	"dm-scheduler/utils"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// ListPageSize is how many schedules one /list page shows.
const ListPageSize = 15

// ListCustomIDPrefix prefixes the pagination buttons of /list.
const ListCustomIDPrefix = "schedule_list"

const (
	msgStorageFailure = "❌ Something went wrong talking to the database, please try again."
	msgInvalidTime    = "⚠️ Invalid time - use 12-hour format like `02:30 PM`."
	msgNotFound       = "❌ Not found"
	msgEmptyList      = "📭 No scheduled DMs."
)

// Store is what the command surface needs from the schedule store.
type Store interface {
	Create(ctx context.Context, userID string, runAt time.Time, message, attachmentURL string) (int64, error)
	List(ctx context.Context) ([]model.Schedule, error)
	Get(ctx context.Context, id int64) (*model.Schedule, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context) (map[model.ScheduleStatus]int, error)
	NextPending(ctx context.Context) (*model.Schedule, error)
}

// Sender delivers a direct message immediately.
type Sender interface {
	Send(ctx context.Context, userID, content, attachmentURL string) error
}

// Handler produces the replies of the schedule commands.
type Handler struct {
	store  Store
	sender Sender
	loc    *time.Location
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewHandler(store Store, sender Sender, loc *time.Location, log logrus.FieldLogger) *Handler {
	return &Handler{
		store:  store,
		sender: sender,
		loc:    loc,
		log:    log,
		now:    time.Now,
	}
}

// Send delivers message and/or the attachment at attachmentURL to recipientID right away.
func (h *Handler) Send(ctx context.Context, recipientID, recipientName, message, attachmentURL string) string {
	if err := h.sender.Send(ctx, recipientID, message, attachmentURL); err != nil {
		h.log.WithError(err).WithField("user_id", recipientID).Warn("Instant DM failed")
		return fmt.Sprintf("❌ Failed to send DM: %v", err)
	}
	return fmt.Sprintf("✅ Sent DM to %s", recipientName)
}

// Create schedules a DM for the next occurrence of timeInput in the configured timezone.
func (h *Handler) Create(ctx context.Context, recipientID, timeInput, message, attachmentURL string) string {
	runAt, err := utils.ParseTime12h(timeInput, h.now(), h.loc)
	if err != nil {
		return msgInvalidTime
	}

	id, err := h.store.Create(ctx, recipientID, runAt, message, attachmentURL)
	if err != nil {
		h.log.WithError(err).WithField("user_id", recipientID).Error("Failed to create schedule")
		return msgStorageFailure
	}

	h.log.WithFields(logrus.Fields{"schedule_id": id, "user_id": recipientID, "run_at": runAt}).Info("Schedule created")
	return fmt.Sprintf("✅ Scheduled DM **#%d** to <@%s> at %s (%s).", id, recipientID, utils.FormatLocal(runAt, h.loc), h.loc)
}

// List renders one page of all schedules, earliest first, with pagination buttons when needed.
func (h *Handler) List(ctx context.Context, page int) (string, []discordgo.MessageComponent) {
	schedules, err := h.store.List(ctx)
	if err != nil {
		h.log.WithError(err).Error("Failed to list schedules")
		return msgStorageFailure, nil
	}
	if len(schedules) == 0 {
		return msgEmptyList, nil
	}

	page, totalPages, start, end := utils.PageBounds(page, ListPageSize, len(schedules))

	var builder strings.Builder
	builder.WriteString("📋 Scheduled:\n")
	for _, sc := range schedules[start:end] {
		builder.WriteString(fmt.Sprintf("#%d: to <@%s> at %s - %s", sc.ID, sc.UserID, utils.FormatLocal(sc.RunAt, h.loc), sc.Status))
		if sc.HasAttachment() {
			builder.WriteString(" (file)")
		}
		builder.WriteString("\n")
	}
	if totalPages > 1 {
		builder.WriteString(fmt.Sprintf("\nPage %d/%d", page, totalPages))
	}

	return strings.TrimRight(builder.String(), "\n"), utils.CreatePaginationComponents(page, totalPages, ListCustomIDPrefix)
}

// Get renders the full details of one schedule.
func (h *Handler) Get(ctx context.Context, id int64) string {
	sc, err := h.lookup(ctx, id)
	if err != nil {
		return h.lookupFailure(err, id)
	}

	message := sc.Content()
	if message == "" {
		message = "[no text]"
	}
	attachment := "[none]"
	if sc.HasAttachment() {
		attachment = sc.AttachmentURL.String
	}

	head := fmt.Sprintf("#%d\nTo: <@%s>\nTime: %s\nStatus: %s\nMessage: ",
		sc.ID, sc.UserID, utils.FormatLocal(sc.RunAt, h.loc), sc.Status)
	return fitDetails(head, message, "\nAttachment: ", attachment)
}

// minMessageRoom is how much of a long message /get keeps when the attachment URL is also long.
const minMessageRoom = 200

// fitDetails joins the /get fields, clipping the message and then the attachment
// so the reply stays within Discord's message limit.
func fitDetails(head, message, label, attachment string) string {
	room := utils.MaxMessageLength - utf8.RuneCountInString(head) - utf8.RuneCountInString(label)
	if n := utf8.RuneCountInString(attachment); n > room-minMessageRoom {
		attachment = utils.ClipRunes(attachment, room-minMessageRoom)
	}
	message = utils.ClipRunes(message, room-utf8.RuneCountInString(attachment))
	return head + message + label + attachment
}

// Cancel cancels a pending schedule. Anything that is not pending is reported and left alone.
func (h *Handler) Cancel(ctx context.Context, id int64) string {
	sc, err := h.lookup(ctx, id)
	if err != nil {
		return h.lookupFailure(err, id)
	}
	if sc.Status != model.StatusPending {
		return fmt.Sprintf("⚠️ Schedule is already %s.", sc.Status)
	}

	canceled, err := h.store.Cancel(ctx, id)
	if err != nil {
		h.log.WithError(err).WithField("schedule_id", id).Error("Failed to cancel schedule")
		return msgStorageFailure
	}
	if !canceled {
		// Lost the race against the poll loop; report whatever it recorded.
		sc, err = h.lookup(ctx, id)
		if err != nil {
			return h.lookupFailure(err, id)
		}
		return fmt.Sprintf("⚠️ Schedule is already %s.", sc.Status)
	}

	h.log.WithField("schedule_id", id).Info("Schedule canceled")
	return fmt.Sprintf("🛑 Canceled schedule #%d.", id)
}

func (h *Handler) lookup(ctx context.Context, id int64) (*model.Schedule, error) {
	sc, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, model.ErrNotFound
	}
	return sc, nil
}

func (h *Handler) lookupFailure(err error, id int64) string {
	if errors.Is(err, model.ErrNotFound) {
		return msgNotFound
	}
	h.log.WithError(err).WithField("schedule_id", id).Error("Failed to load schedule")
	return msgStorageFailure
}
