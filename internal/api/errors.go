package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/scheduling"
	"github.com/bacready/bacready-api/internal/service"
	"github.com/bacready/bacready-api/internal/service/auth"
	"github.com/bacready/bacready-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
//
// The interesting distinctions: a missing prerequisite (no academic context,
// no selected subjects) is 422, a lifecycle race (compare-and-set losing,
// skipping a finished session) is 409, and touching someone else's resource
// is 403.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Missing prerequisite for the operation
	case errors.Is(err, service.ErrNoAcademicContext),
		errors.Is(err, scheduling.ErrNoSubjects):
		return http.StatusUnprocessableEntity

	// Lifecycle and uniqueness conflicts
	case errors.Is(err, store.ErrStateConflict),
		errors.Is(err, service.ErrSessionTerminal),
		errors.Is(err, store.ErrActiveScheduleExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, service.ErrNoActiveSchedule),
		store.IsNotFoundError(err):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidScore),
		errors.Is(err, domain.ErrInvalidCompletionPercentage),
		errors.Is(err, domain.ErrExamMaxScoreInvalid),
		errors.Is(err, domain.ErrExamScoreOutOfRange),
		errors.Is(err, service.ErrBreakSession),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this resource"

	case errors.Is(err, service.ErrNoAcademicContext):
		return "Academic context must be set before generating a schedule"

	case errors.Is(err, scheduling.ErrNoSubjects):
		return "At least one subject must be selected"

	case errors.Is(err, service.ErrSessionTerminal):
		return "Session is already completed or skipped"

	case errors.Is(err, store.ErrStateConflict):
		return "Session is not in the required state"

	case errors.Is(err, store.ErrActiveScheduleExists):
		return "An active schedule already exists"

	case errors.Is(err, service.ErrNoActiveSchedule):
		return "No active schedule"

	case errors.Is(err, store.ErrScheduleNotFound):
		return "Schedule not found"

	case errors.Is(err, store.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, store.ErrSubjectNotFound):
		return "Subject not found"

	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, service.ErrBreakSession):
		return "Break sessions have no lifecycle"

	case errors.Is(err, domain.ErrInvalidDateRange):
		return "Start date must not be after end date"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return SanitizeValidationError(err)

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps an error to a status code and safe message and writes
// the response. An explicit userMessage overrides the derived one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	statusCode := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, statusCode, userMessage, err)
}

// SanitizeValidationError turns a validation error into a user-friendly
// message without internal detail.
func SanitizeValidationError(err error) string {
	var fieldErr *domain.ValidationError
	if errors.As(err, &fieldErr) {
		return fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Message)
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'GenerateScheduleRequest.StartDate' Error:Field
		// validation for 'StartDate' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "datetime":
		return "invalid date format"
	default:
		return "validation failed"
	}
}
