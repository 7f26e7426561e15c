// Package service provides application-level services for schedule
// generation, session lifecycle, subjects, settings and exam results.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Service methods return these for expected conditions; callers check them
// with errors.Is and the API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. Maps to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNoAcademicContext indicates the user has not recorded an academic
	// context (phase, year, stream), which schedule generation requires.
	// Maps to HTTP 422 Unprocessable Entity.
	ErrNoAcademicContext = errors.New("academic context is required before generating a schedule")

	// ErrNoActiveSchedule indicates the user has no active schedule.
	// Maps to HTTP 404 Not Found.
	ErrNoActiveSchedule = errors.New("no active schedule")

	// ErrBreakSession indicates a lifecycle operation was attempted on a
	// break session. Breaks are fillers without a lifecycle.
	ErrBreakSession = errors.New("break sessions have no lifecycle")

	// ErrSessionTerminal indicates the session is already completed or
	// skipped and permits no further transitions. Maps to HTTP 409 Conflict.
	ErrSessionTerminal = errors.New("session is in a terminal state")
)
