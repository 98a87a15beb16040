package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a map-backed revocation list for single-instance
// deployments and tests. Expired entries are pruned lazily on access.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time // jti -> expiry of the revocation entry
	clock   func() time.Time
}

// InMemoryTRLOption configures an InMemoryTRL.
type InMemoryTRLOption func(*InMemoryTRL)

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) InMemoryTRLOption {
	return func(t *InMemoryTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// NewInMemoryTRL constructs an empty in-memory revocation list.
func NewInMemoryTRL(opts ...InMemoryTRLOption) *InMemoryTRL {
	t := &InMemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	now := t.clock()

	t.mu.RLock()
	expiry, ok := t.revoked[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.Before(expiry) {
		return true, nil
	}

	// Entry outlived the token it revoked; prune it.
	t.mu.Lock()
	if expiry, ok := t.revoked[jti]; ok && !now.Before(expiry) {
		delete(t.revoked, jti)
	}
	t.mu.Unlock()
	return false, nil
}
