package models

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummaryCountersPartitionResults(t *testing.T) {
	s := NewRunSummary("run-1", "full", time.Now())

	outcomes := []Outcome{
		OutcomeAdded, OutcomeAdded,
		OutcomeUpdated,
		OutcomeSkipped, OutcomeSkipped, OutcomeSkipped,
		OutcomeDeactivated,
		OutcomeError,
	}
	for i, o := range outcomes {
		s.Append(SyncResult{Identity: fmt.Sprintf("u%d", i), Outcome: o, Error: "x"})
	}

	assert.Equal(t, 2, s.Added)
	assert.Equal(t, 1, s.Updated)
	assert.Equal(t, 3, s.Skipped)
	assert.Equal(t, 1, s.Deactivated)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, s.Added+s.Updated+s.Deactivated+s.Skipped+s.Errors, len(s.Results))
}

func TestSummaryConcurrentAppend(t *testing.T) {
	s := NewRunSummary("run-2", "full", time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(SyncResult{Identity: "u", Outcome: OutcomeAdded})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Added)
	assert.Len(t, s.Results, 100)
}

func TestSummaryErrorDetailsBounded(t *testing.T) {
	s := NewRunSummary("run-3", "full", time.Now())
	for i := 0; i < 100; i++ {
		s.Append(SyncResult{Identity: fmt.Sprintf("u%d", i), Outcome: OutcomeError, Error: "boom"})
	}

	assert.Equal(t, 100, s.Errors)
	assert.Len(t, s.ErrorDetails, maxErrorDetails)
}

func TestFinalize(t *testing.T) {
	done := time.Now().Add(time.Minute)

	clean := NewRunSummary("run-4", "delta", time.Now())
	clean.Append(SyncResult{Identity: "u", Outcome: OutcomeAdded})
	clean.Finalize(done)
	assert.Equal(t, RunCompleted, clean.Status)
	assert.Equal(t, done, clean.CompletedAt)

	dirty := NewRunSummary("run-5", "delta", time.Now())
	dirty.Append(SyncResult{Identity: "u", Outcome: OutcomeError, Error: "boom"})
	dirty.Finalize(done)
	assert.Equal(t, RunCompletedWithErrors, dirty.Status)
}

func TestFailPreservesTotals(t *testing.T) {
	s := NewRunSummary("run-6", "full", time.Now())
	s.Append(SyncResult{Identity: "u1", Outcome: OutcomeAdded})
	s.Fail(time.Now(), "directory unreachable")

	assert.Equal(t, RunFailed, s.Status)
	assert.Equal(t, 1, s.Added)
	assert.Contains(t, s.ErrorDetails, "directory unreachable")
}
