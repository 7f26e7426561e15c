package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. The entity-specific errors below wrap it, so callers can match
	// either the generic or the specific error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a second active schedule for a user).
	ErrDuplicate = errors.New("entity already exists")

	// ErrStateConflict is returned when a compare-and-set update finds the
	// entity in a different state than the caller expected. The caller's
	// view was stale; it should re-read and decide again.
	ErrStateConflict = errors.New("entity state conflict")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrScheduleNotFound indicates that the requested schedule does not exist.
	ErrScheduleNotFound = fmt.Errorf("%w: schedule", ErrNotFound)

	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// ErrSettingsNotFound indicates that the user has no stored settings row.
	// Callers generally fall back to domain.DefaultSettings.
	ErrSettingsNotFound = fmt.Errorf("%w: settings", ErrNotFound)

	// ErrSubjectNotFound indicates that the requested subject does not exist
	// or is not attached to the user.
	ErrSubjectNotFound = fmt.Errorf("%w: subject", ErrNotFound)

	// ErrProgressNotFound indicates that no progress row exists for the
	// user and node.
	ErrProgressNotFound = fmt.Errorf("%w: content progress", ErrNotFound)

	// ErrExamResultNotFound indicates that the requested exam result does not exist.
	ErrExamResultNotFound = fmt.Errorf("%w: exam result", ErrNotFound)

	// ErrAcademicContextNotFound indicates that the user has not recorded
	// an academic context yet. Schedule generation requires one.
	ErrAcademicContextNotFound = fmt.Errorf("%w: academic context", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrActiveScheduleExists indicates that the user already has an active
	// schedule. Generation archives the old schedule first, so hitting this
	// means two generations raced.
	ErrActiveScheduleExists = fmt.Errorf("%w: active schedule", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "schedule", "session")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
