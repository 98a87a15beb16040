package user

import (
	"context"
	"sync"
	"time"

	"adminauth/internal/auth/models"
	"adminauth/pkg/platform/sentinel"
)

// InMemoryStore keeps user records in a map. Suitable for single-instance
// deployments and tests; it intentionally favors clarity over performance.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// New constructs an empty in-memory user store.
func New() *InMemoryStore {
	return &InMemoryStore{users: make(map[string]*models.User)}
}

func (s *InMemoryStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return sentinel.ErrConflict
	}
	u := *user
	s.users[user.Username] = &u
	return nil
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	// Copy so callers cannot mutate stored state.
	out := *u
	return &out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) UpdateLastLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (s *InMemoryStore) UpdatePassword(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, username string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Status = status
	return nil
}
