package service

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"dirsync/internal/directory"
	"dirsync/internal/sync/index"
	"dirsync/internal/sync/models"
)

// SyncAllUsers runs a full synchronization: every directory user is fetched,
// filtered, and classified against the complete target set. This is the only
// mode that reconciles deletions, since only a full source set can prove a
// record's absence.
func (s *Service) SyncAllUsers(ctx context.Context) (*models.RunSummary, error) {
	summary := s.startRun(ModeFull)
	ctx, span := s.tracer.Start(ctx, "sync.full")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", summary.RunID))

	source, err := s.dir.ListUsers(ctx, directory.Filter{EnabledOnly: !s.cfg.IncludeDisabled})
	if err != nil {
		err = fmt.Errorf("list directory users: %w", err)
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	targets, err := s.store.QueryAll(ctx)
	if err != nil {
		err = fmt.Errorf("query target records: %w", err)
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	// The index is built once, before any writes, and is read-only for the
	// rest of the run.
	idx := index.Build(targets)
	lookup := func(_ context.Context, src models.SourceRecord) (*models.TargetRecord, error) {
		rec, _ := idx.Lookup(src)
		return rec, nil
	}

	var mu sync.Mutex
	touched := make(map[int64]struct{}, len(targets))
	touch := func(id int64) {
		mu.Lock()
		touched[id] = struct{}{}
		mu.Unlock()
	}

	filtered := s.filterRecords(source)
	if err := s.processRecords(ctx, filtered, lookup, summary, touch); err != nil {
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	if s.cfg.DeactivateMissing {
		s.reconcile(ctx, targets, touched, summary)
	}

	s.finishRun(summary)
	return summary, nil
}

// reconcile deactivates active target records that no source record touched
// this run. This is the only place deletions are inferred: the engine never
// directly observes "this identity no longer exists" outside the delta feed.
func (s *Service) reconcile(ctx context.Context, targets []*models.TargetRecord, touched map[int64]struct{}, summary *models.RunSummary) {
	for _, rec := range targets {
		if rec.Status != models.StatusActive {
			continue
		}
		if _, ok := touched[rec.ID]; ok {
			continue
		}

		orphan := *rec
		orphan.Status = models.StatusInactive
		orphan.LastSyncedAt = s.now()

		res := models.SyncResult{
			Identity:    orphanIdentity(rec),
			DisplayName: rec.Title,
			Outcome:     models.OutcomeDeactivated,
			TargetID:    rec.ID,
		}
		if err := s.store.Update(ctx, &orphan); err != nil {
			res = models.SyncResult{
				Identity: orphanIdentity(rec),
				Outcome:  models.OutcomeError,
				TargetID: rec.ID,
				Error:    fmt.Sprintf("deactivate: %v", err),
			}
		}
		summary.Append(res)
		s.metrics.IncOutcome(string(res.Outcome))
	}
}

func orphanIdentity(rec *models.TargetRecord) string {
	if rec.Email != "" {
		return rec.Email
	}
	return rec.PrincipalName
}
