package records

import (
	"context"
	"strings"
	"sync"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by unit tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*models.TargetRecord
	failNow error
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		byID:   make(map[int64]*models.TargetRecord),
	}
}

// FailWith makes every subsequent call return err; nil restores normal
// behavior. Used by tests to exercise run-level failure paths.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNow = err
}

func (s *MemoryStore) QueryAll(_ context.Context) ([]*models.TargetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failNow != nil {
		return nil, s.failNow
	}
	out := make([]*models.TargetRecord, 0, len(s.byID))
	for _, rec := range s.byID {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) FindByExternalIDOrEmail(_ context.Context, externalID, email string) (*models.TargetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.failNow != nil {
		return nil, s.failNow
	}
	if externalID != "" {
		for _, rec := range s.byID {
			if rec.ExternalID == externalID {
				cp := *rec
				return &cp, nil
			}
		}
	}
	if email != "" {
		for _, rec := range s.byID {
			if strings.EqualFold(rec.Email, email) {
				cp := *rec
				return &cp, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, rec *models.TargetRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNow != nil {
		return 0, s.failNow
	}
	cp := *rec
	cp.ID = s.nextID
	s.nextID++
	s.byID[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemoryStore) Update(_ context.Context, rec *models.TargetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNow != nil {
		return s.failNow
	}
	if _, ok := s.byID[rec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *rec
	s.byID[rec.ID] = &cp
	return nil
}

// Get returns a copy of one record, for test assertions.
func (s *MemoryStore) Get(id int64) (models.TargetRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return models.TargetRecord{}, false
	}
	return *rec, true
}
