// Package synclog is the append-only record of sync run activity. Writes are
// best-effort: a log failure is a warning for the caller and must never
// change the outcome of the run it describes.
package synclog

import (
	"context"
	"time"
)

// Entry is one logged run event.
type Entry struct {
	ID        string    `json:"id"`
	RunID     string    `json:"runId"`
	Mode      string    `json:"mode"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder appends run events and reads them back most-recent-first.
type Recorder interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, count int) ([]Entry, error)
}
