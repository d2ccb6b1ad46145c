package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// SyncSingleUser fetches exactly one directory record and classifies it. An
// unknown identifier yields a single Error result, not a run failure; only
// an unreachable directory fails the run. Pre-classification filters do not
// apply: an explicitly requested record is always processed.
func (s *Service) SyncSingleUser(ctx context.Context, identifier string) (*models.RunSummary, error) {
	summary := s.startRun(ModeSingle)
	ctx, span := s.tracer.Start(ctx, "sync.single")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", summary.RunID),
		attribute.String("identifier", identifier),
	)

	src, err := s.dir.GetUser(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			summary.Append(models.SyncResult{
				Identity: identifier,
				Outcome:  models.OutcomeError,
				Error:    "not found in directory",
			})
			s.metrics.IncOutcome(string(models.OutcomeError))
			s.finishRun(summary)
			return summary, nil
		}
		err = fmt.Errorf("get directory user: %w", err)
		span.RecordError(err)
		s.failRun(summary, err)
		return summary, err
	}

	res := s.classifyOne(ctx, src, s.storeLookup, nil)
	summary.Append(res)
	s.metrics.IncOutcome(string(res.Outcome))

	s.finishRun(summary)
	return summary, nil
}
