package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"adminauth/internal/audit"
	"adminauth/internal/platform/metrics"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/requestcontext"
)

// Store is the attempt persistence contract. Implementations must make
// RecordFailure atomic per identifier so concurrent requests cannot bypass
// the threshold.
type Store interface {
	Get(ctx context.Context, identifier string) (*Attempt, error)
	RecordFailure(ctx context.Context, identifier string) (*Attempt, error)
	Update(ctx context.Context, record *Attempt) error
	Clear(ctx context.Context, identifier string) error
}

// Config tunes the lockout policy.
type Config struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

// DefaultConfig mirrors the original deployment: 5 attempts, 15 minutes.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	}
}

// Guard enforces the per-identifier lockout state machine:
// Clean -> (failure)* -> Locked(until) -> Clean.
type Guard struct {
	store          Store
	logger         *slog.Logger
	auditPublisher audit.Publisher
	metrics        *metrics.Metrics
	config         Config
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(g *Guard) {
		g.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) {
		g.metrics = m
	}
}

func WithConfig(cfg Config) Option {
	return func(g *Guard) {
		if cfg.MaxAttempts > 0 {
			g.config.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.LockoutDuration > 0 {
			g.config.LockoutDuration = cfg.LockoutDuration
		}
	}
}

// NewGuard constructs a lockout guard over the given store.
func NewGuard(store Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	g := &Guard{
		store:  store,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Check reports whether a login attempt for username from ip is currently
// allowed. Called before credential validation. An elapsed lock resets the
// identifier to the clean state.
func (g *Guard) Check(ctx context.Context, username, ip string) (*Result, error) {
	key := Key(username, ip)
	record, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get login attempt record")
	}

	// Use a zero-valued record for a consistent code path regardless of
	// whether the identifier has failed before.
	if record == nil {
		record = &Attempt{Identifier: key}
	}

	now := requestcontext.Now(ctx)

	if record.IsLockedAt(now) {
		retryAfter := record.LockedUntil.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &Result{
			Allowed:      false,
			RetryAfter:   retryAfter,
			FailureCount: record.FailureCount,
		}, nil
	}

	// A lock that has elapsed means the counter starts over.
	if record.LockExpiredAt(now) {
		if err := g.store.Clear(ctx, key); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset elapsed lockout")
		}
		record = &Attempt{Identifier: key}
	}

	return &Result{
		Allowed:      true,
		FailureCount: record.FailureCount,
		Remaining:    record.RemainingAttempts(g.config.MaxAttempts),
	}, nil
}

// RecordFailure registers a failed login and applies the lock once the
// threshold is reached. Returns the updated record.
func (g *Guard) RecordFailure(ctx context.Context, username, ip string) (*Attempt, error) {
	key := Key(username, ip)
	now := requestcontext.Now(ctx)

	// A failure after an elapsed lock restarts the count at one.
	if existing, err := g.store.Get(ctx, key); err == nil && existing != nil && existing.LockExpiredAt(now) {
		if err := g.store.Clear(ctx, key); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset elapsed lockout")
		}
	}

	current, err := g.store.RecordFailure(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}

	if current.ShouldLock(g.config.MaxAttempts) && !current.IsLockedAt(now) {
		current.ApplyLock(g.config.LockoutDuration, now)
		if err := g.store.Update(ctx, current); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply lockout")
		}
		g.metrics.RecordLockout()
		audit.LogEvent(ctx, g.logger, g.auditPublisher, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.EventLockoutTriggered,
			Username: username,
			ClientIP: ip,
		})
	}

	return current, nil
}

// Clear resets the identifier after a successful login.
func (g *Guard) Clear(ctx context.Context, username, ip string) error {
	key := Key(username, ip)
	if err := g.store.Clear(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	audit.LogEvent(ctx, g.logger, g.auditPublisher, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.EventLockoutCleared,
		Username: username,
		ClientIP: ip,
	})
	return nil
}
