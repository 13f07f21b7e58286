package model

import (
	"database/sql"
	"time"
)

// ScheduleStatus is the delivery state of a Schedule.
type ScheduleStatus string

const (
	StatusPending  ScheduleStatus = "pending"
	StatusSending  ScheduleStatus = "sending" // claimed by the poll loop, delivery in flight
	StatusSent     ScheduleStatus = "sent"
	StatusFailed   ScheduleStatus = "failed"
	StatusCanceled ScheduleStatus = "canceled"
)

// Terminal reports whether no further transition is allowed from s.
func (s ScheduleStatus) Terminal() bool {
	switch s {
	case StatusSent, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Schedule is a direct message queued for delivery at RunAt.
type Schedule struct {
	ID            int64          `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	Message       sql.NullString `db:"message" json:"-"`
	AttachmentURL sql.NullString `db:"attachment_url" json:"-"`
	RunAt         time.Time      `db:"run_at" json:"run_at"`
	Status        ScheduleStatus `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// HasAttachment reports whether a file should be forwarded with the message.
func (s *Schedule) HasAttachment() bool {
	return s.AttachmentURL.Valid && s.AttachmentURL.String != ""
}

// Content returns the message body, empty when none was given.
func (s *Schedule) Content() string {
	if !s.Message.Valid {
		return ""
	}
	return s.Message.String
}

// Attachment is a downloaded file ready to be forwarded.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}
