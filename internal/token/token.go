// Package token issues and verifies session tokens. Tokens are HMAC-signed
// JWTs carrying identity claims, an expiry, and a random jti nonce, so
// tampering with any field fails signature verification.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "adminauth/pkg/domain-errors"
	"adminauth/pkg/platform/sentinel"
)

// Claims are the identity claims embedded in a session token.
type Claims struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verification failure reasons, used for metrics and audit.
const (
	ReasonExpired   = "expired"
	ReasonMalformed = "malformed"
	ReasonSignature = "invalid_signature"
)

// Internal markers so callers can classify Verify failures without string
// comparison. ErrExpired reuses the shared sentinel.
var (
	errSignature = errors.New("invalid signature")
	errMalformed = errors.New("malformed")
)

// Codec creates and parses session tokens.
type Codec struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	clock      func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source, for deterministic expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Codec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCodec constructs a Codec signing with the given key. ttl is the session
// lifetime applied to every issued token.
func NewCodec(signingKey string, issuer string, ttl time.Duration, opts ...Option) *Codec {
	c := &Codec{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue creates a signed session token for the given identity. The jti nonce
// makes every token unique and doubles as the revocation key.
func (c *Codec) Issue(username, fullName, role string) (string, *Claims, error) {
	now := c.clock()
	claims := Claims{
		Username: username,
		FullName: fullName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.issuer,
			Subject:   username,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, &claims, nil
}

// Verify parses and validates a session token. The signature is checked
// before any claim is trusted. Failures map to unauthorized domain errors
// with distinct messages for expired, malformed, and tampered tokens.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(c.clock), jwt.WithIssuer(c.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeUnauthorized, "token has expired")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, dErrors.Wrap(errSignature, dErrors.CodeUnauthorized, "token signature is invalid")
		default:
			return nil, dErrors.Wrap(errMalformed, dErrors.CodeUnauthorized, "malformed token")
		}
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// FailureReason classifies a Verify error for metrics. Returns "" for nil.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sentinel.ErrExpired):
		return ReasonExpired
	case errors.Is(err, errSignature):
		return ReasonSignature
	default:
		return ReasonMalformed
	}
}
