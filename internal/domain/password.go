package domain

import "errors"

// Password is a plaintext password that satisfied the active policy.
// It exists only in flight between the request layer and the credential
// store; it is never persisted and never logged.
type Password string

// ErrInvalidPassword is returned when a candidate fails the policy.
var ErrInvalidPassword = errors.New("password does not meet requirements")

// PasswordPolicy decides whether a plaintext password is acceptable at
// registration time. Complexity rules are deliberately pluggable; the
// default only enforces a minimum length.
type PasswordPolicy func(raw string) error

// MinLengthPolicy returns a policy requiring at least n bytes.
func MinLengthPolicy(n int) PasswordPolicy {
	return func(raw string) error {
		if len(raw) < n {
			return ErrInvalidPassword
		}
		return nil
	}
}

// DefaultPasswordPolicy requires at least 8 characters.
var DefaultPasswordPolicy = MinLengthPolicy(8)

// ParsePassword validates a plaintext password against the given policy.
// A nil policy means DefaultPasswordPolicy.
func ParsePassword(raw string, policy PasswordPolicy) (Password, error) {
	if policy == nil {
		policy = DefaultPasswordPolicy
	}
	if err := policy(raw); err != nil {
		return "", err
	}
	return Password(raw), nil
}
