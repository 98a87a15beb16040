// Package revocation maintains a denylist of revoked session token IDs.
// Entries live only as long as the token they revoke, so the list stays
// bounded by the session timeout.
package revocation

import (
	"context"
	"fmt"
	"time"

	"adminauth/pkg/platform/sentinel"
)

// TokenRevocationList is the denylist contract. Logout adds the token's jti
// with TTL equal to the remaining token lifetime; verify consults it.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
