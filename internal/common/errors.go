// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrStaleState = errors.New("record changed concurrently")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrDeliveryFailed = errors.New("delivery failed")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Credential errors.
	ErrInvalidPassword = errors.New("invalid password")
	ErrSamePassword    = errors.New("new password should be different from old one")

	// Password reset errors.
	ErrCodeMismatch  = errors.New("code is incorrect")
	ErrTokenMismatch = errors.New("confirmation token is incorrect")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError carries the human-readable reason an input was rejected.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
