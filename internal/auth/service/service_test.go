package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"adminauth/internal/audit"
	"adminauth/internal/auth/models"
	"adminauth/internal/auth/service"
	userstore "adminauth/internal/auth/store/user"
	"adminauth/internal/lockout"
	"adminauth/internal/revocation"
	"adminauth/internal/token"
	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/requestcontext"
)

// capturingPublisher records every emitted audit event so tests can assert
// on the internal failure reasons that never reach API responses.
type capturingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *capturingPublisher) Emit(_ context.Context, event audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *capturingPublisher) lastByAction(action string) (audit.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Action == action {
			return p.events[i], true
		}
	}
	return audit.Event{}, false
}

// ServiceSuite exercises the auth service against real in-memory stores. The
// clock is injected through s.now; bcrypt runs at MinCost to keep it fast.
type ServiceSuite struct {
	suite.Suite
	svc   *service.Service
	users *userstore.InMemoryStore
	trl   *revocation.InMemoryTRL
	audit *capturingPublisher
	now   time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	// Token timestamps are second-resolution; anchor near wall time so logout
	// TTL arithmetic stays positive.
	s.now = time.Now().Truncate(time.Second)

	hasher := &service.BcryptHasher{Cost: bcrypt.MinCost}
	s.users = userstore.New()
	s.Require().NoError(userstore.SeedDefaultAdmins(context.Background(), s.users, hasher))

	guard, err := lockout.NewGuard(lockout.NewInMemoryStore())
	s.Require().NoError(err)

	codec := token.NewCodec("test-signing-key", "adminauth", time.Hour,
		token.WithClock(func() time.Time { return s.now }))
	s.trl = revocation.NewInMemoryTRL()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.audit = &capturingPublisher{}
	s.svc, err = service.New(s.users, guard, codec, hasher,
		service.WithRevocationList(s.trl),
		service.WithLogger(quiet),
		service.WithAuditPublisher(s.audit),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) ctx(ip string) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithClientMetadata(ctx, ip, "test-agent")
}

func (s *ServiceSuite) TestLoginSuccess() {
	result, err := s.svc.Login(s.ctx("10.0.0.1"), "admin_kelurahan", "admin123")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.Equal("admin_kelurahan", result.User.Username)
	s.Equal("Admin Kelurahan", result.User.FullName)
	s.Equal("admin", result.User.Role)

	s.Run("last login timestamp is recorded", func() {
		u, err := s.users.FindByUsername(context.Background(), "admin_kelurahan")
		s.Require().NoError(err)
		s.Require().NotNil(u.LastLoginAt)
		s.True(u.LastLoginAt.Equal(s.now))
	})

	s.Run("issued token verifies to the same identity", func() {
		verified, err := s.svc.Verify(s.ctx("10.0.0.1"), result.Token)
		s.Require().NoError(err)
		s.Equal(&result.User, verified)
	})
}

func (s *ServiceSuite) TestLoginValidation() {
	_, err := s.svc.Login(s.ctx("10.0.0.1"), "", "admin123")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Login(s.ctx("10.0.0.1"), "admin_kelurahan", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// All credential failures must be indistinguishable to the caller so usernames
// cannot be enumerated.
func (s *ServiceSuite) TestLoginFailuresAreIndistinguishable() {
	s.Require().NoError(s.svc.DeactivateUser(s.ctx("10.0.0.1"), "staff_admin"))

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "no_such_user", "whatever"},
		{"wrong password", "admin_kelurahan", "not-the-password"},
		{"inactive account", "staff_admin", "staff123"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.svc.Login(s.ctx("10.0.0.1"), tc.username, tc.password)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.Equal("invalid username or password", dErrors.Message(err))
		})
	}
}

// The merged "invalid username or password" response must still leave a
// precise trail: each failure mode carries its real reason in the emitted
// audit event.
func (s *ServiceSuite) TestAuditRecordsRealFailureReason() {
	s.Require().NoError(s.svc.DeactivateUser(s.ctx("10.0.0.1"), "staff_admin"))

	cases := []struct {
		name     string
		username string
		password string
		reason   string
	}{
		{"unknown user", "no_such_user", "whatever", "user_not_found"},
		{"wrong password", "admin_kelurahan", "not-the-password", "bad_credential"},
		{"inactive account", "staff_admin", "staff123", "inactive_account"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.audit.reset()

			_, err := s.svc.Login(s.ctx("10.0.0.1"), tc.username, tc.password)
			s.Require().Error(err)
			s.Equal("invalid username or password", dErrors.Message(err))

			event, ok := s.audit.lastByAction(audit.EventLoginFailed)
			s.Require().True(ok, "no login_failed event emitted")
			s.Equal(audit.CategorySecurity, event.Category)
			s.Equal(tc.username, event.Username)
			s.Equal("10.0.0.1", event.ClientIP)
			s.Equal(tc.reason, event.Reason)
		})
	}

	s.Run("successful login carries no reason", func() {
		s.audit.reset()

		_, err := s.svc.Login(s.ctx("10.0.0.1"), "admin_kelurahan", "admin123")
		s.Require().NoError(err)

		event, ok := s.audit.lastByAction(audit.EventLoginSucceeded)
		s.Require().True(ok)
		s.Equal("admin_kelurahan", event.Username)
		s.Empty(event.Reason)
	})

	s.Run("locked identifier is recorded as such", func() {
		for i := 0; i < 5; i++ {
			_, _ = s.svc.Login(s.ctx("10.0.0.9"), "sekretaris", "wrong-password")
		}
		s.audit.reset()

		_, err := s.svc.Login(s.ctx("10.0.0.9"), "sekretaris", "sekret123")
		s.Require().Error(err)

		event, ok := s.audit.lastByAction(audit.EventLoginFailed)
		s.Require().True(ok)
		s.Equal("locked", event.Reason)
	})
}

// Admin operations record who performed them, taken from the authenticated
// request context.
func (s *ServiceSuite) TestAuditRecordsActorOnAdminOperations() {
	ctx := requestcontext.WithUsername(s.ctx("10.0.0.1"), "admin_kelurahan")

	_, err := s.svc.CreateUser(ctx, "bendahara", "bend123", "Bendahara Kelurahan", models.RoleAdmin)
	s.Require().NoError(err)
	event, ok := s.audit.lastByAction(audit.EventUserCreated)
	s.Require().True(ok)
	s.Equal("bendahara", event.Username)
	s.Equal("admin_kelurahan", event.Actor)

	s.Require().NoError(s.svc.ChangePassword(ctx, "bendahara", "rotated456"))
	event, ok = s.audit.lastByAction(audit.EventPasswordChanged)
	s.Require().True(ok)
	s.Equal("bendahara", event.Username)
	s.Equal("admin_kelurahan", event.Actor)

	s.Require().NoError(s.svc.DeactivateUser(ctx, "bendahara"))
	event, ok = s.audit.lastByAction(audit.EventUserDeactivated)
	s.Require().True(ok)
	s.Equal("bendahara", event.Username)
	s.Equal("admin_kelurahan", event.Actor)
}

func (s *ServiceSuite) TestLockoutAfterRepeatedFailures() {
	ip := "10.0.0.1"

	for i := 0; i < 5; i++ {
		_, err := s.svc.Login(s.ctx(ip), "sekretaris", "wrong-password")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "attempt %d", i+1)
	}

	s.Run("correct password is rejected while locked", func() {
		_, err := s.svc.Login(s.ctx(ip), "sekretaris", "sekret123")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
		s.Contains(dErrors.Message(err), "retry after")
	})

	s.Run("same username from another address is unaffected", func() {
		result, err := s.svc.Login(s.ctx("192.168.1.50"), "sekretaris", "sekret123")
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
	})

	s.Run("lock releases after the lockout duration", func() {
		s.now = s.now.Add(15*time.Minute + time.Second)
		result, err := s.svc.Login(s.ctx(ip), "sekretaris", "sekret123")
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
	})
}

func (s *ServiceSuite) TestVerify() {
	result, err := s.svc.Login(s.ctx("10.0.0.1"), "kepala_kelurahan", "kepala123")
	s.Require().NoError(err)

	s.Run("empty token fails validation", func() {
		_, err := s.svc.Verify(s.ctx("10.0.0.1"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("garbage token is unauthorized", func() {
		_, err := s.svc.Verify(s.ctx("10.0.0.1"), "not-a-token")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("expired token is unauthorized", func() {
		s.now = s.now.Add(time.Hour + time.Second)
		_, err := s.svc.Verify(s.ctx("10.0.0.1"), result.Token)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("token has expired", dErrors.Message(err))
	})
}

func (s *ServiceSuite) TestLogout() {
	result, err := s.svc.Login(s.ctx("10.0.0.1"), "admin_kelurahan", "admin123")
	s.Require().NoError(err)

	s.Run("empty token fails validation", func() {
		err := s.svc.Logout(s.ctx("10.0.0.1"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("dead token is acknowledged without error", func() {
		s.NoError(s.svc.Logout(s.ctx("10.0.0.1"), "not-a-token"))
	})

	s.Run("revoked token no longer verifies", func() {
		s.Require().NoError(s.svc.Logout(s.ctx("10.0.0.1"), result.Token))

		_, err := s.svc.Verify(s.ctx("10.0.0.1"), result.Token)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("token has been revoked", dErrors.Message(err))
	})

	s.Run("logout is idempotent", func() {
		s.NoError(s.svc.Logout(s.ctx("10.0.0.1"), result.Token))
	})
}

func (s *ServiceSuite) TestAdminOperations() {
	ctx := s.ctx("10.0.0.1")

	s.Run("create user provisions a working account", func() {
		view, err := s.svc.CreateUser(ctx, "bendahara", "bend123", "Bendahara Kelurahan", models.RoleAdmin)
		s.Require().NoError(err)
		s.Equal("bendahara", view.Username)
		s.Equal("Bendahara Kelurahan", view.FullName)

		result, err := s.svc.Login(ctx, "bendahara", "bend123")
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
	})

	s.Run("duplicate username conflicts", func() {
		_, err := s.svc.CreateUser(ctx, "bendahara", "other", "Other", models.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("list exposes only public fields", func() {
		users, err := s.svc.ListUsers(ctx)
		s.Require().NoError(err)
		s.Len(users, 5) // four seeded accounts plus bendahara

		names := make([]string, 0, len(users))
		for _, u := range users {
			names = append(names, u.Username)
		}
		s.Contains(names, "bendahara")
	})

	s.Run("create user rejects missing fields", func() {
		_, err := s.svc.CreateUser(ctx, "", "pw", "Name", models.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("password change invalidates the old credential", func() {
		s.Require().NoError(s.svc.ChangePassword(ctx, "bendahara", "rotated456"))

		_, err := s.svc.Login(ctx, "bendahara", "bend123")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		result, err := s.svc.Login(ctx, "bendahara", "rotated456")
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
	})

	s.Run("password change for unknown user is not found", func() {
		err := s.svc.ChangePassword(ctx, "nobody", "pw")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("deactivated account can no longer log in", func() {
		s.Require().NoError(s.svc.DeactivateUser(ctx, "bendahara"))

		_, err := s.svc.Login(ctx, "bendahara", "rotated456")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid username or password", dErrors.Message(err))
	})

	s.Run("deactivating unknown user is not found", func() {
		err := s.svc.DeactivateUser(ctx, "nobody")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
