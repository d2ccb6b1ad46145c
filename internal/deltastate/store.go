// Package deltastate persists the change-feed continuation token between
// delta runs. Absence of a token is a normal state (never synced); a read
// failure is reported distinctly so callers and tests can tell the two apart.
package deltastate

import (
	"context"
	"time"
)

// Lookup is the typed result of a token read. Found is false both when no
// token was ever saved and when the backing store could not be read; the
// accompanying error from Get distinguishes the cases.
type Lookup struct {
	Token   string
	Found   bool
	SavedAt time.Time
}

// Status is the operator-facing view of the persisted watermark.
type Status struct {
	HasStoredDelta bool       `json:"hasStoredDelta"`
	LastDeltaSync  *time.Time `json:"lastDeltaSync,omitempty"`
}

// Store persists the delta watermark.
type Store interface {
	// Get reads the stored token. A missing token yields Lookup{Found:
	// false} with a nil error; an unreadable store yields a non-nil error.
	Get(ctx context.Context) (Lookup, error)

	// Save stores the token and the save timestamp, replacing any
	// previous value. Saving is expected after every successful delta
	// run, including empty ones, to advance the watermark.
	Save(ctx context.Context, token string, at time.Time) error

	// Reset discards the stored token so the next delta run rebuilds the
	// watermark from scratch. The prescribed recovery for corrupt state.
	Reset(ctx context.Context) error
}
