// Package common defines shared constants and sentinel errors used across
// faceguard layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorRateLimited  = errors.New("too many requests")

	// Input errors.
	ErrorValidation = errors.New("validation error")

	// Device errors.
	ErrorResourceUnavailable = errors.New("resource unavailable")

	// Setup errors surfaced to the operator.
	ErrorModelNotTrained = errors.New("model not trained")
	ErrorNoTrainingData  = errors.New("no training data")

	// Session errors. Tampered, expired and revoked tokens all map here.
	ErrorInvalidSession = errors.New("invalid session")
)

// ValidationError is a malformed-input rejection with a human-readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrorValidation.Error(), e.Reason)
}

// Is reports ErrorValidation so callers can match the whole class.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
