package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Challenge is a single-use second-factor artifact bound to one identity.
// At most one challenge exists per identity at any time; issuing a new one
// supersedes the previous.
type Challenge struct {
	Email     Email
	ID        string // 128-bit random identifier, UUID form.
	Code      string // exactly 6 decimal digits.
	CreatedAt time.Time
}

// ErrInvalidChallengeID is returned when an id is not a well-formed UUID.
var ErrInvalidChallengeID = errors.New("invalid challenge id")

// ErrInvalidChallengeCode is returned when a code is not exactly 6 digits.
var ErrInvalidChallengeCode = errors.New("invalid challenge code")

// NewChallengeID generates a fresh 128-bit random challenge identifier.
func NewChallengeID() string {
	return uuid.NewString()
}

// ParseChallengeID validates a caller-supplied challenge id and returns its
// canonical form.
func ParseChallengeID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidChallengeID
	}
	return id.String(), nil
}

// NewChallengeCode draws a code uniformly from [100000, 999999] using a
// cryptographically strong source. A guessable code here is a direct
// authentication bypass.
func NewChallengeCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating challenge code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ParseChallengeCode validates a caller-supplied code: exactly 6 ASCII digits.
func ParseChallengeCode(raw string) (string, error) {
	if len(raw) != 6 {
		return "", ErrInvalidChallengeCode
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", ErrInvalidChallengeCode
		}
	}
	return raw, nil
}
