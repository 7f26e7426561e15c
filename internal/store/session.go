package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	// CreateBatch saves a batch of sessions. Generation and adaptation
	// insert many sessions at once; run this inside a transaction via
	// WithTx so a failure inserts nothing.
	CreateBatch(ctx context.Context, sessions []*domain.Session) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// ListBySchedule returns every session of a schedule ordered by date
	// and start time.
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.Session, error)

	// ListByScheduleAndDate returns a schedule's sessions for one calendar
	// day ordered by start time.
	ListByScheduleAndDate(ctx context.Context, scheduleID uuid.UUID, date time.Time) ([]*domain.Session, error)

	// UpdateStatusCAS transitions a session from one status to another with
	// a compare-and-set on the current status: the UPDATE is guarded by
	// WHERE status = from, and zero affected rows yields ErrStateConflict.
	// mutate is applied to the loaded session before writing and may set
	// completion fields alongside the status change; it must not change the
	// session's identity. Returns the updated session.
	UpdateStatusCAS(
		ctx context.Context,
		id uuid.UUID,
		from, to domain.SessionStatus,
		mutate func(*domain.Session),
	) (*domain.Session, error)

	// ExpireScheduledBefore marks every still-scheduled session of the
	// schedule dated strictly before the given day as skipped with the
	// reason "missed", and returns how many rows changed. Paused and
	// in-progress sessions are left alone.
	ExpireScheduledBefore(ctx context.Context, scheduleID uuid.UUID, before time.Time) (int, error)

	// WithTx returns a SessionStore bound to the given transaction.
	WithTx(tx *sql.Tx) SessionStore
}
