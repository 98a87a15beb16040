package lockout

import (
	"context"
	"sync"

	"adminauth/pkg/requestcontext"
)

// InMemoryStore keeps attempt records in a map guarded by a single mutex so
// concurrent failures for the same identifier cannot race the counter.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Attempt
}

// NewInMemoryStore constructs an empty in-memory attempt store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Attempt)}
}

// Get returns the attempt record for an identifier, or nil if none exists.
func (s *InMemoryStore) Get(_ context.Context, identifier string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identifier]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// RecordFailure atomically increments the failure counter, creating the
// record on first failure. Returns the updated record.
func (s *InMemoryStore) RecordFailure(ctx context.Context, identifier string) (*Attempt, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[identifier]
	if !ok {
		rec = &Attempt{Identifier: identifier}
		s.records[identifier] = rec
	}
	rec.FailureCount++
	rec.LastFailureAt = now
	cp := *rec
	return &cp, nil
}

// Update overwrites the stored record, used after the service applies a lock.
func (s *InMemoryStore) Update(_ context.Context, record *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.Identifier] = &cp
	return nil
}

// Clear removes the record, resetting the identifier to the clean state.
func (s *InMemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, identifier)
	return nil
}
