package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dirsync/internal/sync/models"
	"dirsync/internal/synclog"
)

// Notifier hands a completed run summary to an external collaborator.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, summary *models.RunSummary, recipients []string) error
}

// Audited wraps a Syncer with best-effort run logging and completion
// notification. The orchestrator itself stays free of observability
// concerns; a log or notify failure is a warning and never changes the
// outcome of the run it describes.
type Audited struct {
	next       Syncer
	log        synclog.Recorder
	notifier   Notifier
	recipients []string
	logger     *slog.Logger
	now        func() time.Time
}

// AuditedOption configures the decorator.
type AuditedOption func(*Audited)

// WithNotifier attaches a run-completion notifier and its recipients.
func WithNotifier(n Notifier, recipients []string) AuditedOption {
	return func(a *Audited) {
		a.notifier = n
		a.recipients = recipients
	}
}

// WithAuditLogger sets a logger for swallowed audit failures.
func WithAuditLogger(logger *slog.Logger) AuditedOption {
	return func(a *Audited) {
		a.logger = logger
	}
}

// NewAudited decorates a Syncer with the audit sink.
func NewAudited(next Syncer, log synclog.Recorder, opts ...AuditedOption) *Audited {
	a := &Audited{
		next: next,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Audited) SyncAllUsers(ctx context.Context) (*models.RunSummary, error) {
	summary, err := a.next.SyncAllUsers(ctx)
	a.record(ctx, summary)
	return summary, err
}

func (a *Audited) SyncSingleUser(ctx context.Context, identifier string) (*models.RunSummary, error) {
	summary, err := a.next.SyncSingleUser(ctx, identifier)
	a.record(ctx, summary)
	return summary, err
}

func (a *Audited) SyncUsersFromGroup(ctx context.Context, groupID string) (*models.RunSummary, error) {
	summary, err := a.next.SyncUsersFromGroup(ctx, groupID)
	a.record(ctx, summary)
	return summary, err
}

func (a *Audited) SyncDelta(ctx context.Context) (*models.RunSummary, error) {
	summary, err := a.next.SyncDelta(ctx)
	a.record(ctx, summary)
	return summary, err
}

// History reads back the most recent run log entries.
func (a *Audited) History(ctx context.Context, count int) ([]synclog.Entry, error) {
	return a.log.Recent(ctx, count)
}

// record captures the run's start and terminal events in the sync log and
// hands completed summaries to the notifier. All failures are swallowed.
func (a *Audited) record(ctx context.Context, summary *models.RunSummary) {
	if summary == nil {
		return
	}

	start := synclog.Entry{
		ID:        uuid.NewString(),
		RunID:     summary.RunID,
		Mode:      summary.Mode,
		Status:    string(models.RunRunning),
		Message:   "run started",
		Timestamp: summary.StartedAt,
	}
	end := synclog.Entry{
		ID:        uuid.NewString(),
		RunID:     summary.RunID,
		Mode:      summary.Mode,
		Status:    string(summary.Status),
		Message:   summary.Describe(),
		Timestamp: summary.CompletedAt,
	}
	for _, entry := range []synclog.Entry{start, end} {
		if err := a.log.Append(ctx, entry); err != nil {
			if a.logger != nil {
				a.logger.Warn("sync log append failed",
					"run_id", summary.RunID,
					"status", entry.Status,
					"error", err,
				)
			}
		}
	}

	if a.notifier != nil && summary.Status != models.RunRunning {
		if err := a.notifier.NotifyRunCompleted(ctx, summary, a.recipients); err != nil {
			if a.logger != nil {
				a.logger.Warn("run completion notification failed",
					"run_id", summary.RunID,
					"error", err,
				)
			}
		}
	}
}
