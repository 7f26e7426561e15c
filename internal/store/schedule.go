package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// ScheduleStore defines the interface for schedule persistence.
type ScheduleStore interface {
	// Create saves a new schedule. The single-active-schedule invariant is
	// enforced by a partial unique index; creating a second active schedule
	// for a user returns ErrActiveScheduleExists. Generation should archive
	// the previous schedule and create the new one inside one transaction
	// via WithTx, so a failure leaves the old schedule untouched.
	Create(ctx context.Context, schedule *domain.Schedule) error

	// GetByID retrieves a schedule by its unique ID.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)

	// GetActiveForUser retrieves the user's single active schedule.
	// Returns ErrScheduleNotFound if the user has none.
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*domain.Schedule, error)

	// ListForUser returns the user's schedules, newest first, up to limit.
	// A limit of zero or less means no limit.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Schedule, error)

	// Update persists the schedule's mutable fields: status, session
	// counters, completion rate and adaptation count.
	// Returns ErrScheduleNotFound if the schedule does not exist.
	Update(ctx context.Context, schedule *domain.Schedule) error

	// ArchiveActiveForUser marks every active schedule of the user as
	// archived and returns how many rows changed. Zero is not an error;
	// first-time users have nothing to archive.
	ArchiveActiveForUser(ctx context.Context, userID uuid.UUID) (int, error)

	// CreateAdaptationRecord appends an entry to the schedule's adaptation
	// audit trail. Records are never updated or deleted.
	CreateAdaptationRecord(ctx context.Context, record *domain.AdaptationRecord) error

	// ListAdaptationRecords returns the schedule's audit trail in
	// chronological order.
	ListAdaptationRecords(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AdaptationRecord, error)

	// ListActiveUserIDs returns the IDs of every user that currently has
	// an active schedule. The maintenance sweep iterates this set.
	ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// WithTx returns a ScheduleStore bound to the given transaction.
	WithTx(tx *sql.Tx) ScheduleStore
}
