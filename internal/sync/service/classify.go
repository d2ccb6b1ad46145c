package service

import (
	"context"
	"errors"
	"fmt"

	"dirsync/internal/sync/mapper"
	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// lookupFunc resolves a source record to an existing target record, or nil
// when no record matches. Full and group runs look up in the prebuilt index;
// single and delta runs query the store directly.
type lookupFunc func(ctx context.Context, src models.SourceRecord) (*models.TargetRecord, error)

// storeLookup adapts the record store to lookupFunc.
func (s *Service) storeLookup(ctx context.Context, src models.SourceRecord) (*models.TargetRecord, error) {
	rec, err := s.store.FindByExternalIDOrEmail(ctx, src.ExternalID, src.Email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

// classifyOne runs the shared classification routine for one source record.
// Every failure here is record-local: it is converted into an Error result
// and never aborts the run. touch marks matched target ids for the
// reconciliation scan; it may be nil in modes that never reconcile.
func (s *Service) classifyOne(ctx context.Context, src models.SourceRecord, lookup lookupFunc, touch func(int64)) models.SyncResult {
	existing, err := lookup(ctx, src)
	if err != nil {
		return errorResult(src, fmt.Errorf("lookup: %w", err))
	}

	now := s.now()

	if existing == nil {
		rec := &models.TargetRecord{Status: models.StatusActive}
		mapper.Apply(rec, src, s.cfg.Mappings, now)
		rec.ExternalID = src.ExternalID
		if !src.AccountEnabled {
			rec.Status = models.StatusInactive
		}
		id, err := s.store.Create(ctx, rec)
		if err != nil {
			return errorResult(src, fmt.Errorf("create: %w", err))
		}
		return models.SyncResult{
			Identity:    src.Identity(),
			DisplayName: src.DisplayName,
			Outcome:     models.OutcomeAdded,
			TargetID:    id,
		}
	}

	if touch != nil {
		touch(existing.ID)
	}

	if !s.cfg.UpdateExisting {
		return models.SyncResult{
			Identity:    src.Identity(),
			DisplayName: src.DisplayName,
			Outcome:     models.OutcomeSkipped,
			TargetID:    existing.ID,
		}
	}

	updated := *existing
	mapper.Apply(&updated, src, s.cfg.Mappings, now)
	// Linkage is established once and never reassigned by ordinary sync.
	if updated.ExternalID == "" {
		updated.ExternalID = src.ExternalID
	}
	if !src.AccountEnabled {
		updated.Status = models.StatusInactive
	}

	// A write that would only refresh LastSyncedAt is not an update; this
	// keeps back-to-back full syncs idempotent.
	if !materialChange(existing, &updated) {
		return models.SyncResult{
			Identity:    src.Identity(),
			DisplayName: src.DisplayName,
			Outcome:     models.OutcomeSkipped,
			TargetID:    existing.ID,
		}
	}

	if err := s.store.Update(ctx, &updated); err != nil {
		return errorResult(src, fmt.Errorf("update: %w", err))
	}
	return models.SyncResult{
		Identity:    src.Identity(),
		DisplayName: src.DisplayName,
		Outcome:     models.OutcomeUpdated,
		TargetID:    existing.ID,
	}
}

// materialChange reports whether the mapped record differs from the stored
// one in anything other than the sync timestamp.
func materialChange(before, after *models.TargetRecord) bool {
	a := *before
	b := *after
	a.LastSyncedAt = b.LastSyncedAt
	return a != b
}

func errorResult(src models.SourceRecord, err error) models.SyncResult {
	return models.SyncResult{
		Identity:    src.Identity(),
		DisplayName: src.DisplayName,
		Outcome:     models.OutcomeError,
		Error:       err.Error(),
	}
}
