// Package apperror provides domain-specific error types for Keywarden.
// These errors carry an HTTP status code and a user-safe message. The Echo
// error handler maps them to appropriate HTTP responses automatically.
//
// NEVER return raw database or infrastructure errors to the client. Always
// wrap them in an apperror type or return a generic internal error.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError is the base error type for all domain errors. It carries an
// HTTP status code, a machine-readable error type, and a human-readable
// message safe to show to the client.
type AppError struct {
	// Code is the HTTP status code (e.g., 401, 409, 500).
	Code int `json:"-"`

	// Type is a machine-readable error classifier (e.g., "invalid_token").
	Type string `json:"type"`

	// Message is a human-readable description safe for the client.
	Message string `json:"message"`

	// Internal holds the underlying error for logging. Never exposed to client.
	Internal error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// --- Constructors for the authentication error taxonomy ---

// NewAlreadyExists creates a 409 Conflict for duplicate registration.
func NewAlreadyExists(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Type:    "already_exists",
		Message: message,
	}
}

// NewIncorrectCredentials creates a 401 for a failed credential or
// second-factor check. Wrong password, unknown identity, wrong challenge id,
// wrong code, and expired or consumed challenges all share this one
// constructor so the response never reveals which sub-check failed.
func NewIncorrectCredentials() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "incorrect_credentials",
		Message: "incorrect credentials",
	}
}

// NewMissingToken creates a 400 for a request that should have carried a
// session token but did not.
func NewMissingToken() *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "missing_token",
		Message: "missing session token",
	}
}

// NewInvalidToken creates a 401 for a token that failed verification.
// Malformed, expired, and revoked tokens are deliberately merged; the
// internal cause stays in logs only.
func NewInvalidToken(cause error) *AppError {
	return &AppError{
		Code:     http.StatusUnauthorized,
		Type:     "invalid_token",
		Message:  "invalid session token",
		Internal: cause,
	}
}

// NewValidation creates a 422 Unprocessable Entity for malformed input
// (unparseable email, short password, bad challenge id format).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: message,
	}
}

// NewBadRequest creates a 400 Bad Request error.
func NewBadRequest(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Type:    "bad_request",
		Message: message,
	}
}

// NewUnauthorized creates a generic 401 Unauthorized error.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		Type:    "unauthorized",
		Message: message,
	}
}

// NewInternal creates a 500 Internal Server Error. This is the only category
// that carries a wrapped cause for diagnostics; the client only sees a
// generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}

// SafeMessage returns the client-safe error message from an error. If the
// error is an AppError, returns its Message field (which is safe to expose).
// For any other error type, returns a generic message to prevent leaking
// internal details like table names, query structure, or stack traces.
func SafeMessage(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Message
	}
	return "an unexpected error occurred"
}

// SafeCode returns the HTTP status code from an AppError, or 500 for
// any other error type.
func SafeCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return http.StatusInternalServerError
}
