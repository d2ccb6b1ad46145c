package models

import (
	"fmt"
	"sync"
	"time"
)

// RunStatus is the lifecycle of one sync invocation.
type RunStatus string

const (
	RunRunning             RunStatus = "Running"
	RunCompleted           RunStatus = "Completed"
	RunCompletedWithErrors RunStatus = "CompletedWithErrors"
	RunFailed              RunStatus = "Failed"
)

// Outcome tags the result of classifying one source record (or one orphan
// found during reconciliation).
type Outcome string

const (
	OutcomeAdded       Outcome = "Added"
	OutcomeUpdated     Outcome = "Updated"
	OutcomeSkipped     Outcome = "Skipped"
	OutcomeDeactivated Outcome = "Deactivated"
	OutcomeError       Outcome = "Error"
)

// SyncResult is the per-record outcome within a run.
type SyncResult struct {
	Identity    string  `json:"identity"`
	DisplayName string  `json:"displayName,omitempty"`
	Outcome     Outcome `json:"outcome"`
	TargetID    int64   `json:"targetId,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// maxErrorDetails bounds the human-readable error list so a pathological run
// cannot grow the summary without limit. Counters remain exact.
const maxErrorDetails = 25

// RunSummary is the auditable outcome of one sync invocation. Counters are
// maintained by Append and therefore always partition Results by outcome.
// Appends are safe for concurrent use by the orchestrator's workers.
type RunSummary struct {
	RunID        string       `json:"runId"`
	Mode         string       `json:"mode"`
	Status       RunStatus    `json:"status"`
	StartedAt    time.Time    `json:"startedAt"`
	CompletedAt  time.Time    `json:"completedAt,omitzero"`
	Added        int          `json:"added"`
	Updated      int          `json:"updated"`
	Deactivated  int          `json:"deactivated"`
	Skipped      int          `json:"skipped"`
	Errors       int          `json:"errors"`
	Results      []SyncResult `json:"results"`
	ErrorDetails []string     `json:"errorDetails,omitempty"`

	mu sync.Mutex
}

// NewRunSummary starts a summary in the Running state.
func NewRunSummary(runID, mode string, startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     runID,
		Mode:      mode,
		Status:    RunRunning,
		StartedAt: startedAt,
	}
}

// Append records one result and bumps the matching counter.
func (s *RunSummary) Append(res SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Results = append(s.Results, res)
	switch res.Outcome {
	case OutcomeAdded:
		s.Added++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeDeactivated:
		s.Deactivated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeError:
		s.Errors++
		if len(s.ErrorDetails) < maxErrorDetails {
			s.ErrorDetails = append(s.ErrorDetails, fmt.Sprintf("%s: %s", res.Identity, res.Error))
		}
	}
}

// Finalize stamps the completion time and derives the terminal status:
// Completed when error-free, CompletedWithErrors when any record failed.
// A run-level failure is finalized separately via Fail.
func (s *RunSummary) Finalize(completedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CompletedAt = completedAt
	if s.Errors > 0 {
		s.Status = RunCompletedWithErrors
		return
	}
	s.Status = RunCompleted
}

// Fail stamps the completion time, marks the run Failed, and records the
// fatal reason. Totals computed before the failure are preserved.
func (s *RunSummary) Fail(completedAt time.Time, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.CompletedAt = completedAt
	s.Status = RunFailed
	if reason != "" && len(s.ErrorDetails) < maxErrorDetails {
		s.ErrorDetails = append(s.ErrorDetails, reason)
	}
}

// Describe renders a one-line operator summary.
func (s *RunSummary) Describe() string {
	return fmt.Sprintf("run %s %s: added=%d updated=%d deactivated=%d skipped=%d errors=%d",
		s.RunID, s.Status, s.Added, s.Updated, s.Deactivated, s.Skipped, s.Errors)
}
