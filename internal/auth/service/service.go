// Package service orchestrates admin authentication: credential validation,
// lockout enforcement, session token issuance and verification, and logout
// via the revocation list.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adminauth/internal/audit"
	"adminauth/internal/auth/models"
	userstore "adminauth/internal/auth/store/user"
	"adminauth/internal/lockout"
	"adminauth/internal/platform/metrics"
	"adminauth/internal/revocation"
	"adminauth/internal/token"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/requestcontext"
)

// Login outcome labels for metrics.
const (
	outcomeSuccess            = "success"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeLocked             = "locked"
)

// Service wires the auth core together. It holds no per-request state; the
// lockout guard and revocation list carry the only cross-request state.
type Service struct {
	users          userstore.Store
	guard          *lockout.Guard
	codec          *token.Codec
	hasher         PasswordHasher
	trl            revocation.TokenRevocationList
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher audit.Publisher
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithRevocationList enables real logout semantics. Without it, logout is a
// best-effort acknowledgment and verify skips the revocation check.
func WithRevocationList(trl revocation.TokenRevocationList) Option {
	return func(s *Service) {
		s.trl = trl
	}
}

// New constructs the auth service.
func New(users userstore.Store, guard *lockout.Guard, codec *token.Codec, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if guard == nil {
		return nil, errors.New("lockout guard is required")
	}
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	s := &Service{
		users:  users,
		guard:  guard,
		codec:  codec,
		hasher: hasher,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login validates credentials and issues a session token. The lockout guard
// runs before credential validation so locked identifiers never reach the
// user store.
func (s *Service) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username and password are required")
	}

	ip := requestcontext.ClientIP(ctx)

	check, err := s.guard.Check(ctx, username, ip)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		s.metrics.RecordLogin(outcomeLocked)
		audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.EventLoginFailed,
			Username: username,
			ClientIP: ip,
			Reason:   "locked",
		})
		return nil, dErrors.New(dErrors.CodeRateLimited,
			fmt.Sprintf("too many failed login attempts; retry after %s", check.RetryAfter.Round(time.Second)))
	}

	u, cause, err := s.validateCredentials(ctx, username, password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			return nil, err
		}
		if _, gErr := s.guard.RecordFailure(ctx, username, ip); gErr != nil {
			s.logger.ErrorContext(ctx, "failed to record login failure",
				"error", gErr,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.metrics.RecordLogin(outcomeInvalidCredentials)
		audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
			Category: audit.CategorySecurity,
			Action:   audit.EventLoginFailed,
			Username: username,
			ClientIP: ip,
			Reason:   cause,
		})
		return nil, err
	}

	if err := s.guard.Clear(ctx, username, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to clear login failures", "error", err)
	}

	// Last-write-wins is acceptable for concurrent logins; a stale
	// last_login_at never blocks authentication.
	now := requestcontext.Now(ctx)
	if err := s.users.UpdateLastLogin(ctx, u.Username, now); err != nil {
		s.logger.WarnContext(ctx, "failed to update last login",
			"username", u.Username,
			"error", err,
		)
	}

	signed, _, err := s.codec.Issue(u.Username, u.FullName, string(u.Role))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(outcomeSuccess)
	s.metrics.RecordTokenIssued()
	audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
		Category: audit.CategoryOperations,
		Action:   audit.EventLoginSucceeded,
		Username: u.Username,
		ClientIP: ip,
	})

	return &models.LoginResult{
		Token: signed,
		User:  u.PublicView(),
	}, nil
}

// Verify validates a session token and returns the identity it carries.
// Revoked tokens fail verification when a revocation list is configured.
func (s *Service) Verify(ctx context.Context, tokenString string) (*models.PublicUser, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		s.metrics.RecordVerifyFailure(token.FailureReason(err))
		return nil, err
	}

	if s.trl != nil {
		revoked, err := s.trl.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "revocation list unavailable")
		}
		if revoked {
			s.metrics.RecordVerifyFailure("revoked")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	return &models.PublicUser{
		Username: claims.Username,
		FullName: claims.FullName,
		Role:     claims.Role,
	}, nil
}

// Logout revokes the session token. Tokens that no longer verify (expired,
// malformed) are acknowledged without error; there is nothing left to revoke.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}

	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		// Best-effort: a dead token is already logged out.
		return nil
	}

	if s.trl != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.trl.RevokeToken(ctx, claims.ID, ttl); err != nil {
				return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
			}
		}
	}

	s.metrics.RecordTokenRevoked()
	audit.LogEvent(ctx, s.logger, s.auditPublisher, audit.Event{
		Category: audit.CategorySecurity,
		Action:   audit.EventTokenRevoked,
		Username: claims.Username,
		ClientIP: requestcontext.ClientIP(ctx),
	})
	return nil
}
