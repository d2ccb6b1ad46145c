// Package service is the sync orchestrator: it drives full, single-record,
// group-scoped, and delta runs against the directory, applies the shared
// classification routine, reconciles deletions, and assembles the run
// summary. Transport, audit logging, and notification live in outer layers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"dirsync/internal/deltastate"
	"dirsync/internal/directory"
	"dirsync/internal/records"
	"dirsync/internal/sync/config"
	"dirsync/internal/sync/metrics"
	"dirsync/internal/sync/models"
)

// Run modes, recorded on summaries and metrics labels.
const (
	ModeFull   = "full"
	ModeSingle = "single"
	ModeGroup  = "group"
	ModeDelta  = "delta"
)

// Syncer is the orchestrator's public surface. The audited decorator and the
// HTTP transport both consume this interface.
type Syncer interface {
	SyncAllUsers(ctx context.Context) (*models.RunSummary, error)
	SyncSingleUser(ctx context.Context, identifier string) (*models.RunSummary, error)
	SyncUsersFromGroup(ctx context.Context, groupID string) (*models.RunSummary, error)
	SyncDelta(ctx context.Context) (*models.RunSummary, error)
}

// Service orchestrates sync runs. Configuration is immutable after
// construction; per-call overrides are merged by the caller before New.
type Service struct {
	cfg     config.Sync
	dir     directory.Client
	store   records.Store
	delta   deltastate.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs the orchestrator. Directory, record store, and delta store
// are required.
func New(cfg config.Sync, dir directory.Client, store records.Store, delta deltastate.Store, opts ...Option) (*Service, error) {
	if dir == nil {
		return nil, fmt.Errorf("directory client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if delta == nil {
		return nil, fmt.Errorf("delta state store is required")
	}
	if err := config.ValidateMappings(cfg.Mappings); err != nil {
		return nil, fmt.Errorf("invalid field mappings: %w", err)
	}

	s := &Service{
		cfg:    config.Normalize(cfg),
		dir:    dir,
		store:  store,
		delta:  delta,
		tracer: otel.Tracer("dirsync/sync"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config exposes the resolved configuration, mainly for wiring diagnostics.
func (s *Service) Config() config.Sync {
	return s.cfg
}

// newRunID builds a time-ordered run id with a random suffix so concurrent
// runs against different stores never collide.
func (s *Service) newRunID() string {
	return fmt.Sprintf("%s-%s", s.now().UTC().Format("20060102T150405Z"), strings.Split(uuid.NewString(), "-")[0])
}

func (s *Service) startRun(mode string) *models.RunSummary {
	return models.NewRunSummary(s.newRunID(), mode, s.now())
}

// finishRun derives the terminal status and records metrics.
func (s *Service) finishRun(summary *models.RunSummary) {
	summary.Finalize(s.now())
	s.metrics.ObserveRun(summary.Mode, string(summary.Status), summary.CompletedAt.Sub(summary.StartedAt))
	if s.logger != nil {
		s.logger.Info("sync run finished",
			"run_id", summary.RunID,
			"mode", summary.Mode,
			"status", summary.Status,
			"added", summary.Added,
			"updated", summary.Updated,
			"deactivated", summary.Deactivated,
			"skipped", summary.Skipped,
			"errors", summary.Errors,
		)
	}
}

// failRun stamps a run-level failure. Totals computed before the failure are
// preserved on the summary.
func (s *Service) failRun(summary *models.RunSummary, err error) {
	summary.Fail(s.now(), err.Error())
	s.metrics.ObserveRun(summary.Mode, string(summary.Status), summary.CompletedAt.Sub(summary.StartedAt))
	if s.logger != nil {
		s.logger.Error("sync run failed",
			"run_id", summary.RunID,
			"mode", summary.Mode,
			"error", err,
		)
	}
}
