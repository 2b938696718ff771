package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store backends. The orchestrator translates
// these into the client-facing taxonomy; backend-specific causes are wrapped
// and surface only in logs.
var (
	// ErrUserAlreadyExists is returned by UserStore.Add on duplicate identity.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound is returned when no credential record matches the identity.
	ErrUserNotFound = errors.New("user not found")

	// ErrPasswordMismatch is returned when the candidate password does not
	// match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrChallengeNotFound is returned when no live challenge exists for the
	// identity. Expired challenges behave identically to absent ones.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeMismatch is returned when a live challenge exists but the
	// supplied id or code does not match it.
	ErrChallengeMismatch = errors.New("challenge mismatch")
)

// UserStore is the credential store contract. Implementations must make Add
// atomic with respect to concurrent duplicate registration: exactly one of
// two concurrent Adds for the same identity succeeds. Password hashing and
// comparison happen inside the store (behind a memory-hard salted scheme)
// but never inside its critical section.
type UserStore interface {
	// Add registers a new credential record, hashing the password.
	// Returns ErrUserAlreadyExists if the identity is taken.
	Add(ctx context.Context, email Email, password Password, requiresTwoFactor bool) error

	// Get returns the credential record for the identity, or ErrUserNotFound.
	Get(ctx context.Context, email Email) (User, error)

	// ValidateCredentials checks the candidate password against the stored
	// hash. Returns ErrUserNotFound or ErrPasswordMismatch on failure.
	ValidateCredentials(ctx context.Context, email Email, candidate string) error
}

// ChallengeStore holds at most one outstanding two-factor challenge per
// identity. Compound operations are single critical sections: Issue
// atomically replaces any prior challenge, and Verify atomically deletes
// the challenge on a match so it can never be consumed twice.
type ChallengeStore interface {
	// Issue creates a fresh challenge for the identity, superseding and
	// invalidating any prior one.
	Issue(ctx context.Context, email Email) (Challenge, error)

	// Verify consumes the challenge if id and code match the live challenge
	// for the identity. Returns ErrChallengeNotFound when no live challenge
	// exists (including expiry) and ErrChallengeMismatch when one exists but
	// the id or code is wrong. On success the challenge is already deleted.
	Verify(ctx context.Context, email Email, id, code string) error

	// Invalidate removes any challenge for the identity. Idempotent.
	Invalidate(ctx context.Context, email Email) error
}

// RevocationList records token identifiers invalidated before natural
// expiry. Revoke is idempotent. The ttl passed by the caller is at least the
// revoked token's remaining lifetime, so an entry never disappears while the
// token it bans is still otherwise valid.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
