package deltastate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the token in memory. Tests use the failure hooks to
// exercise the degraded read and swallowed write paths.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	savedAt time.Time
	found   bool

	FailReads  error
	FailWrites error
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (Lookup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailReads != nil {
		return Lookup{}, s.FailReads
	}
	if !s.found {
		return Lookup{}, nil
	}
	return Lookup{Token: s.token, Found: true, SavedAt: s.savedAt}, nil
}

func (s *MemoryStore) Save(_ context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.token = token
	s.savedAt = at
	s.found = true
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.token = ""
	s.savedAt = time.Time{}
	s.found = false
	return nil
}
