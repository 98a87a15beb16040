package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "adminauth/pkg/domain-errors"
)

type CodecSuite struct {
	suite.Suite
	now   time.Time
	codec *Codec
}

func TestCodecSuite(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func (s *CodecSuite) SetupTest() {
	s.now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	s.codec = NewCodec("test-signing-key", "adminauth", 24*time.Hour,
		WithClock(func() time.Time { return s.now }))
}

func (s *CodecSuite) TestRoundTrip() {
	s.Run("claims survive issue and verify unchanged", func() {
		signed, issued, err := s.codec.Issue("admin_kelurahan", "Admin Kelurahan", "admin")
		s.Require().NoError(err)
		s.NotEmpty(signed)
		s.NotEmpty(issued.ID)

		claims, err := s.codec.Verify(signed)
		s.Require().NoError(err)
		s.Equal("admin_kelurahan", claims.Username)
		s.Equal("Admin Kelurahan", claims.FullName)
		s.Equal("admin", claims.Role)
		s.Equal(issued.ID, claims.ID)
		s.Equal(s.now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
		s.Equal(s.now.Unix(), claims.IssuedAt.Unix())
	})

	s.Run("every token carries a fresh nonce", func() {
		_, first, err := s.codec.Issue("admin_kelurahan", "Admin Kelurahan", "admin")
		s.Require().NoError(err)
		_, second, err := s.codec.Issue("admin_kelurahan", "Admin Kelurahan", "admin")
		s.Require().NoError(err)
		s.NotEqual(first.ID, second.ID)
	})
}

func (s *CodecSuite) TestExpiry() {
	signed, _, err := s.codec.Issue("sekretaris", "Sekretaris Kelurahan", "admin")
	s.Require().NoError(err)

	s.Run("valid just before expiry", func() {
		s.now = s.now.Add(24*time.Hour - time.Millisecond)
		_, err := s.codec.Verify(signed)
		s.NoError(err)
	})

	s.Run("expired one millisecond past expiry", func() {
		s.now = s.now.Add(2 * time.Millisecond)
		_, err := s.codec.Verify(signed)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal(ReasonExpired, FailureReason(err))
	})
}

func (s *CodecSuite) TestTampering() {
	signed, _, err := s.codec.Issue("staff_admin", "Staff Admin", "admin")
	s.Require().NoError(err)

	s.Run("rewriting the expiry invalidates the signature", func() {
		parts := strings.Split(signed, ".")
		s.Require().Len(parts, 3)

		decoded, err := base64.RawURLEncoding.DecodeString(parts[1])
		s.Require().NoError(err)
		var payload map[string]any
		s.Require().NoError(json.Unmarshal(decoded, &payload))
		payload["exp"] = s.now.Add(1000 * time.Hour).Unix()
		reencoded, err := json.Marshal(payload)
		s.Require().NoError(err)

		tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString(reencoded) + "." + parts[2]

		_, err = s.codec.Verify(tampered)
		s.Require().Error(err)
		s.Equal(ReasonSignature, FailureReason(err))
	})

	s.Run("token signed with a different key is rejected", func() {
		other := NewCodec("other-key", "adminauth", 24*time.Hour,
			WithClock(func() time.Time { return s.now }))
		foreign, _, err := other.Issue("staff_admin", "Staff Admin", "admin")
		s.Require().NoError(err)

		_, err = s.codec.Verify(foreign)
		s.Require().Error(err)
		s.Equal(ReasonSignature, FailureReason(err))
	})

	s.Run("garbage is malformed", func() {
		_, err := s.codec.Verify("not-a-token")
		s.Require().Error(err)
		s.Equal(ReasonMalformed, FailureReason(err))
	})
}

func (s *CodecSuite) TestIssuerCheck() {
	other := NewCodec("test-signing-key", "someone-else", time.Hour,
		WithClock(func() time.Time { return s.now }))
	foreign, _, err := other.Issue("admin_kelurahan", "Admin Kelurahan", "admin")
	s.Require().NoError(err)

	_, err = s.codec.Verify(foreign)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
