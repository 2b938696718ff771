// Package domain holds the core value types and store contracts for
// Keywarden: validated identities and passwords, two-factor challenges,
// and the interfaces every credential, challenge, and revocation backend
// must implement. No I/O happens here.
package domain

import (
	"errors"
	"regexp"
	"strings"
)

// Email is a validated, normalized address identifying a principal.
// Construct only via ParseEmail; the zero value is not a valid identity.
// Equality is byte-wise on the normalized form.
type Email string

// ErrInvalidEmail is returned when an address fails shape validation.
var ErrInvalidEmail = errors.New("invalid email address")

// emailPattern accepts local@domain with a dotted domain. Deliverability is
// not checked here; that is the mailer's problem.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ParseEmail validates and normalizes an address. Normalization trims
// surrounding whitespace and lowercases the address; the result is the
// canonical form stored at registration and compared on every login.
func ParseEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || !emailPattern.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return Email(normalized), nil
}

// String returns the normalized address.
func (e Email) String() string {
	return string(e)
}
