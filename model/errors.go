package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeFormat is returned for time input that is not a 12-hour clock value.
	ErrInvalidTimeFormat = &ValidationError{Field: "time", Reason: "must be in 12-hour format like 02:30 PM"}
	// ErrNotFound is returned when a schedule id does not exist.
	ErrNotFound = errors.New("schedule not found")
)

// ValidationError describes malformed user input. Nothing is written when it occurs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a failed database operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// DownloadError wraps a failed attachment retrieval.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DeliveryError wraps a failure to resolve the recipient or send the message.
type DeliveryError struct {
	UserID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
