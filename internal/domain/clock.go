package domain

import "time"

// Clock abstracts wall-clock reads so TTL behavior (challenge expiry, token
// expiry, revocation horizons) is testable without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
