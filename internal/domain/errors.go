// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidDateRange is returned when a start date is after an end date.
	ErrInvalidDateRange = errors.New("start date must not be after end date")

	// ErrInvalidTimeRange is returned when a time-of-day range is malformed.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrInvalidSessionType is returned when a session type is not one of
	// the closed set of recognized types.
	ErrInvalidSessionType = errors.New("invalid session type")

	// ErrInvalidSessionStatus is returned when a session status is not one
	// of the closed set of lifecycle states.
	ErrInvalidSessionStatus = errors.New("invalid session status")

	// ErrInvalidTransition is returned when a session lifecycle transition
	// is attempted from a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid session status transition")

	// ErrInvalidCategory is returned when a subject category is not valid.
	ErrInvalidCategory = errors.New("invalid subject category")

	// ErrInvalidCompletionPercentage is returned when a completion
	// percentage falls outside the [0,100] range.
	ErrInvalidCompletionPercentage = errors.New("completion percentage must be between 0 and 100")

	// ErrInvalidScore is returned when a test score falls outside [0,100].
	ErrInvalidScore = errors.New("score must be between 0 and 100")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError carries field-level detail for a validation failure so the
// API layer can tell the caller which field to fix.
type ValidationError struct {
	Field   string // The field that failed validation
	Message string // Human-readable description of the failure
	Err     error  // Underlying sentinel error (usually ErrValidation)
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// NewValidationError creates a new field-level validation error.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
