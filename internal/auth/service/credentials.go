package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"adminauth/internal/auth/models"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/platform/sentinel"
)

// PasswordHasher verifies a presented secret against a stored one-way hash.
// The comparison must be constant-time; the raw password is never stored.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher is the production PasswordHasher.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher at bcrypt's default cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h *BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Internal failure causes, recorded in audit events but never exposed to the
// client, which only ever sees the merged invalid-credentials error.
const (
	causeUserNotFound    = "user_not_found"
	causeInactiveAccount = "inactive_account"
	causeBadCredential   = "bad_credential"
)

// errInvalidCredentials is the single externally-visible failure for unknown
// users, inactive accounts, and wrong passwords, preventing username
// enumeration.
func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid username or password")
}

// validateCredentials checks a presented username/password pair against the
// user store. On failure the returned cause carries the real reason for
// internal auditing.
func (s *Service) validateCredentials(ctx context.Context, username, password string) (*models.User, string, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Burn a hash comparison anyway so missing users cost the same
			// as wrong passwords.
			_ = s.hasher.Compare(dummyHash, password)
			return nil, causeUserNotFound, errInvalidCredentials()
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	if !u.IsActive() {
		_ = s.hasher.Compare(dummyHash, password)
		return nil, causeInactiveAccount, errInvalidCredentials()
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, causeBadCredential, errInvalidCredentials()
	}

	return u, "", nil
}

// dummyHash is a valid bcrypt hash of a random string, compared against when
// no real hash exists to keep the failure path timing-uniform.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
