package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// ErrFullSyncRecommended wraps delta-feed failures: the stored watermark was
// not advanced and the operator should consider falling back to a full sync.
var ErrFullSyncRecommended = errors.New("delta feed unavailable; consider a full sync")

// SyncDelta performs an incremental run from the persisted continuation
// token, paging the change feed to exhaustion. Tombstones deactivate linked
// records; everything else flows through the shared classification routine.
// The new token is persisted even for an empty window, so the watermark
// always advances on success. A feed failure never advances the watermark.
func (s *Service) SyncDelta(ctx context.Context) (*models.RunSummary, error) {
	summary := s.startRun(ModeDelta)
	ctx, span := s.tracer.Start(ctx, "sync.delta")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", summary.RunID))

	stored, err := s.delta.Get(ctx)
	if err != nil {
		// An unreadable token store degrades to an initial delta window;
		// it is deliberately not a run failure.
		if s.logger != nil {
			s.logger.Warn("delta state unreadable, starting a fresh window",
				"run_id", summary.RunID,
				"error", err,
			)
		}
		stored.Found = false
		stored.Token = ""
	}
	span.SetAttributes(attribute.Bool("resumed", stored.Found))

	cursor := stored.Token
	pages := 0
	var newToken string
	for {
		page, qerr := s.dir.QueryDelta(ctx, cursor)
		if qerr != nil {
			qerr = fmt.Errorf("query change feed: %w", errors.Join(ErrFullSyncRecommended, qerr))
			span.RecordError(qerr)
			s.failRun(summary, qerr)
			return summary, qerr
		}
		pages++

		for _, entry := range page.Entries {
			var res models.SyncResult
			if entry.Removed {
				res = s.handleDeletedUser(ctx, entry.Record)
			} else {
				res = s.classifyOne(ctx, entry.Record, s.storeLookup, nil)
			}
			summary.Append(res)
			s.metrics.IncOutcome(string(res.Outcome))
		}

		if page.NextPage != "" {
			cursor = page.NextPage
			continue
		}
		newToken = page.DeltaToken
		break
	}
	s.metrics.ObserveDeltaPages(pages)

	if err := s.delta.Save(ctx, newToken, s.now()); err != nil {
		// Persistence of the watermark is best-effort: the sync itself
		// succeeded, the next delta run just re-reads a wider window.
		if s.logger != nil {
			s.logger.Warn("failed to persist delta token",
				"run_id", summary.RunID,
				"error", err,
			)
		}
	}

	s.finishRun(summary)
	return summary, nil
}

// handleDeletedUser reacts to a tombstone: a linked, active record is
// deactivated; anything else is a no-op recorded as Skipped.
func (s *Service) handleDeletedUser(ctx context.Context, src models.SourceRecord) models.SyncResult {
	existing, err := s.store.FindByExternalIDOrEmail(ctx, src.ExternalID, src.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.SyncResult{
				Identity:    tombstoneIdentity(src),
				DisplayName: src.DisplayName,
				Outcome:     models.OutcomeSkipped,
			}
		}
		return errorResult(src, fmt.Errorf("lookup tombstone: %w", err))
	}
	if existing.Status != models.StatusActive {
		return models.SyncResult{
			Identity:    tombstoneIdentity(src),
			DisplayName: src.DisplayName,
			Outcome:     models.OutcomeSkipped,
			TargetID:    existing.ID,
		}
	}

	deactivated := *existing
	deactivated.Status = models.StatusInactive
	deactivated.LastSyncedAt = s.now()
	if err := s.store.Update(ctx, &deactivated); err != nil {
		return errorResult(src, fmt.Errorf("deactivate: %w", err))
	}
	return models.SyncResult{
		Identity:    tombstoneIdentity(src),
		DisplayName: src.DisplayName,
		Outcome:     models.OutcomeDeactivated,
		TargetID:    existing.ID,
	}
}

// tombstoneIdentity prefers whatever identifying detail the feed still
// carries; removed entries often arrive with only the external id.
func tombstoneIdentity(src models.SourceRecord) string {
	if id := src.Identity(); id != "" {
		return id
	}
	return src.ExternalID
}
