package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// SyncUsersFromGroup resolves a group's membership and classifies each
// member. Group scope is not assumed to be exhaustive of the directory, so
// this mode never reconciles deletions. A member whose record cannot be
// fetched becomes an Error result; only the membership listing itself is a
// run-level dependency.
func (s *Service) SyncUsersFromGroup(ctx context.Context, groupID string) (*models.RunSummary, error) {
	summary := s.startRun(ModeGroup)
	ctx, span := s.tracer.Start(ctx, "sync.group")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", summary.RunID),
		attribute.String("group_id", groupID),
	)

	memberIDs, err := s.dir.ListGroupMembers(ctx, groupID)
	if err != nil {
		err = fmt.Errorf("list group members %s: %w", groupID, err)
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	var source []models.SourceRecord
	for _, id := range memberIDs {
		src, err := s.dir.GetUser(ctx, id)
		if err != nil {
			reason := "fetch member"
			if errors.Is(err, sentinel.ErrNotFound) {
				reason = "member not found in directory"
			}
			summary.Append(models.SyncResult{
				Identity: id,
				Outcome:  models.OutcomeError,
				Error:    fmt.Sprintf("%s: %v", reason, err),
			})
			s.metrics.IncOutcome(string(models.OutcomeError))
			continue
		}
		source = append(source, src)
	}

	if err := s.processRecords(ctx, s.filterRecords(source), s.storeLookup, summary, nil); err != nil {
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	s.finishRun(summary)
	return summary, nil
}
