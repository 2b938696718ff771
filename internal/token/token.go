// Package token issues and verifies the signed session tokens handed to
// clients after login. Tokens are HS256 JWTs carrying the identity in the
// subject claim and a unique token ID used by the revocation list.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/keywarden/keywarden/internal/domain"
)

// ErrInvalidToken is the single verification failure the codec reports.
// Expired, malformed, tampered and wrongly signed tokens are deliberately
// indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload encoded into session tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// Session describes a verified or freshly issued token.
type Session struct {
	Token     string
	TokenID   string
	Email     domain.Email
	ExpiresAt time.Time
}

// Codec signs and verifies session tokens with a shared HMAC secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	clock  domain.Clock
}

// NewCodec creates a codec that issues tokens with the given lifetime.
func NewCodec(secret string, ttl time.Duration, clock domain.Clock) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Issue signs a fresh token for the identity.
func (c *Codec) Issue(email domain.Email) (Session, error) {
	now := c.clock.Now()
	expiresAt := now.Add(c.ttl)
	tokenID := uuid.NewString()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email.String(),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}

	return Session{
		Token:     signed,
		TokenID:   tokenID,
		Email:     email,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify parses and validates a token string. Every failure mode collapses
// into ErrInvalidToken.
func (c *Codec) Verify(raw string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{
		Token:     raw,
		TokenID:   claims.ID,
		Email:     domain.Email(claims.Subject),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}
