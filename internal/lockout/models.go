// Package lockout tracks failed login attempts per identifier and enforces
// temporary lockout after a threshold of consecutive failures.
package lockout

import (
	"fmt"
	"time"
)

// Attempt tracks the failure state for one identifier.
type Attempt struct {
	Identifier    string     `json:"identifier"`
	FailureCount  int        `json:"failure_count"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

// IsLockedAt reports whether the identifier is locked at the given instant.
func (a *Attempt) IsLockedAt(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// LockExpiredAt reports whether a previously applied lock has elapsed. An
// elapsed lock means the failure counter must be treated as reset.
func (a *Attempt) LockExpiredAt(now time.Time) bool {
	return a.LockedUntil != nil && !now.Before(*a.LockedUntil)
}

// ShouldLock reports whether the failure count has reached the threshold.
func (a *Attempt) ShouldLock(threshold int) bool {
	return a.FailureCount >= threshold
}

// ApplyLock sets the lock window starting at now.
func (a *Attempt) ApplyLock(d time.Duration, now time.Time) {
	until := now.Add(d)
	a.LockedUntil = &until
}

// RemainingAttempts returns how many failures remain before lockout.
func (a *Attempt) RemainingAttempts(limit int) int {
	remaining := limit - a.FailureCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Key builds the composite lockout identifier. Keying on username+IP means an
// attacker on one address cannot lock a victim out globally.
func Key(username, ip string) string {
	return fmt.Sprintf("%s|%s", username, ip)
}

// Result is the outcome of a lockout check.
type Result struct {
	Allowed      bool
	RetryAfter   time.Duration
	FailureCount int
	Remaining    int
}
