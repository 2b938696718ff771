package auth

// SignupRequest is the JSON body for POST /signup.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Requires2FA bool   `json:"requires2FA"`
}

// SignupResponse is returned on successful registration.
type SignupResponse struct {
	Message string `json:"message"`
}

// LoginRequest is the JSON body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned when login completes without a second factor.
type LoginResponse struct {
	Token string `json:"token"`
}

// TwoFactorPendingResponse is returned with 206 when a second factor is
// required. The challenge ID is handed to the client; the code goes out of
// band through the mailer.
type TwoFactorPendingResponse struct {
	Message     string `json:"message"`
	ChallengeID string `json:"loginAttemptId"`
}

// VerifyTwoFactorRequest is the JSON body for POST /verify-2fa.
type VerifyTwoFactorRequest struct {
	Email       string `json:"email"`
	ChallengeID string `json:"loginAttemptId"`
	Code        string `json:"2FACode"`
}

// VerifyTokenRequest is the JSON body for POST /verify-token.
type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// MessageResponse is a generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// MeResponse describes the authenticated identity for GET /me.
type MeResponse struct {
	Email string `json:"email"`
}
