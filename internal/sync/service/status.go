package service

import (
	"context"
	"fmt"

	"dirsync/internal/deltastate"
)

// DeltaStatus reports whether a continuation token is stored and when the
// last delta sync saved it.
func (s *Service) DeltaStatus(ctx context.Context) (deltastate.Status, error) {
	lookup, err := s.delta.Get(ctx)
	if err != nil {
		return deltastate.Status{}, fmt.Errorf("read delta state: %w", err)
	}
	status := deltastate.Status{HasStoredDelta: lookup.Found}
	if lookup.Found && !lookup.SavedAt.IsZero() {
		at := lookup.SavedAt
		status.LastDeltaSync = &at
	}
	return status, nil
}

// ResetDelta discards the stored continuation token. The next delta run
// rebuilds the watermark from a full window; this is the recovery path when
// delta state is believed corrupt or stale.
func (s *Service) ResetDelta(ctx context.Context) error {
	if err := s.delta.Reset(ctx); err != nil {
		return fmt.Errorf("reset delta state: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("delta sync state reset")
	}
	return nil
}
