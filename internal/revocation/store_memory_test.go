package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"adminauth/pkg/platform/sentinel"
)

type InMemoryTRLSuite struct {
	suite.Suite
	now time.Time
	trl *InMemoryTRL
}

func TestInMemoryTRLSuite(t *testing.T) {
	suite.Run(t, new(InMemoryTRLSuite))
}

func (s *InMemoryTRLSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.trl = NewInMemoryTRL(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryTRLSuite) TestRevokeAndCheck() {
	ctx := context.Background()

	s.Run("unknown jti is not revoked", func() {
		revoked, err := s.trl.IsRevoked(ctx, "unknown-jti")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("revoked jti is reported until the entry expires", func() {
		s.Require().NoError(s.trl.RevokeToken(ctx, "jti-1", time.Hour))

		revoked, err := s.trl.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.True(revoked)

		s.now = s.now.Add(time.Hour + time.Second)
		revoked, err = s.trl.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("empty jti is a no-op", func() {
		s.NoError(s.trl.RevokeToken(ctx, "", time.Hour))
		revoked, err := s.trl.IsRevoked(ctx, "")
		s.NoError(err)
		s.False(revoked)
	})

	s.Run("non-positive ttl is rejected", func() {
		err := s.trl.RevokeToken(ctx, "jti-2", 0)
		s.Require().Error(err)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})
}
