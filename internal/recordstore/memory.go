package recordstore

import (
	"context"
	"sync"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// MemoryStore keeps records in process memory. Used by the offline CLI and
// in tests.
type MemoryStore struct {
	BaseStore
	mu      sync.RWMutex
	records map[string]assessment.Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		BaseStore: BaseStore{storeType: "memory"},
		records:   make(map[string]assessment.Record),
	}
}

// Put replaces the owner's record with a copy of rec
func (s *MemoryStore) Put(ctx context.Context, owner string, rec *assessment.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[owner] = *rec
	return nil
}

// Latest returns a copy of the owner's record
func (s *MemoryStore) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[owner]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Invalidate drops the owner's record
func (s *MemoryStore) Invalidate(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, owner)
	return nil
}

// HealthCheck always succeeds
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}
