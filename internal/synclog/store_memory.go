package synclog

import (
	"context"
	"sync"
)

// MemoryRecorder keeps entries in memory, newest last.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry

	FailWrites error
}

func NewMemory() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWrites != nil {
		return r.FailWrites
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryRecorder) Recent(_ context.Context, count int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if count <= 0 || count > len(r.entries) {
		count = len(r.entries)
	}
	out := make([]Entry, 0, count)
	for i := len(r.entries) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
