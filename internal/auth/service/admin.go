package service

import (
	"context"
	"errors"

	"adminauth/internal/audit"
	"adminauth/internal/auth/models"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/platform/sentinel"
	"adminauth/pkg/requestcontext"
)

// Admin operations mirror the provisioning functions of the original
// deployment: create an account, rotate its password, deactivate it.
// Accounts are never deleted; deactivation is the terminal state.

// CreateUser provisions a new admin account with the given plaintext
// password, which is hashed before it ever reaches the store.
func (s *Service) CreateUser(ctx context.Context, username, password, fullName string, role models.Role) (*models.PublicUser, error) {
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username and password are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	u, err := models.NewUser(username, hash, fullName, role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.EventUserCreated,
		Username: username,
		Actor:    requestcontext.Username(ctx),
	})

	view := u.PublicView()
	return &view, nil
}

// ListUsers returns the public view of every account.
func (s *Service) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.PublicView())
	}
	return out, nil
}

// ChangePassword rotates an account's credential.
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	if username == "" || newPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "username and new password are required")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.EventPasswordChanged,
		Username: username,
		Actor:    requestcontext.Username(ctx),
	})
	return nil
}

// DeactivateUser marks an account inactive, which blocks all future logins.
func (s *Service) DeactivateUser(ctx context.Context, username string) error {
	if username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}

	if err := s.users.UpdateStatus(ctx, username, models.StatusInactive); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.EventUserDeactivated,
		Username: username,
		Actor:    requestcontext.Username(ctx),
	})
	return nil
}
