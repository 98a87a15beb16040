// Package user provides row-oriented storage for admin account records.
// Implementations are pure I/O; credential checks and status rules live in
// the auth service.
package user

import (
	"context"
	"time"

	"adminauth/internal/auth/models"
)

// Store is the user record store contract. Missing rows surface
// sentinel.ErrNotFound so services can collapse "unknown" and "inactive"
// into one external error.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	UpdateStatus(ctx context.Context, username string, status models.Status) error
}
