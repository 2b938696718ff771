package domain

import "time"

// User is a registered credential record: identity, password hash, and
// whether logins must complete a second factor. The hash is opaque outside
// the credential store; the plaintext never appears here.
type User struct {
	Email             Email
	PasswordHash      string
	RequiresTwoFactor bool
	CreatedAt         time.Time
}
