package models

import (
	"time"

	dErrors "adminauth/pkg/domain-errors"
)

// Role classifies what an admin account may do. The original deployment only
// ever provisioned "admin", but the type leaves room for finer roles.
type Role string

const (
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return r == RoleAdmin
}

// Status captures the account lifecycle. Accounts are never deleted by the
// auth core; deactivation is the terminal state.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is an admin account record. PasswordHash is a bcrypt hash; the raw
// credential is never stored, logged, or returned.
type User struct {
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
	Status       Status
	LastLoginAt  *time.Time
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// PublicView strips the user record down to what login and verify responses
// may expose. The credential hash never leaves the service.
func (u *User) PublicView() PublicUser {
	return PublicUser{
		Username: u.Username,
		FullName: u.FullName,
		Role:     string(u.Role),
	}
}

// PublicUser is the client-visible user projection. The full name serializes
// as "nama" for wire compatibility with the original admin page.
type PublicUser struct {
	Username string `json:"username"`
	FullName string `json:"nama"`
	Role     string `json:"role"`
}

// LoginResult is what a successful login returns to the transport layer.
type LoginResult struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// NewUser builds a User with domain invariant validation. The password hash
// must already be computed by the caller.
func NewUser(username, passwordHash, fullName string, role Role) (*User, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username cannot be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password hash cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid role")
	}
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		Status:       StatusActive,
	}, nil
}
