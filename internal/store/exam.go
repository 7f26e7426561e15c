package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// ExamStore defines the interface for exam result persistence.
// Results are append-only.
type ExamStore interface {
	// Create saves a new exam result.
	Create(ctx context.Context, result *domain.ExamResult) error

	// ListForUser returns the user's exam results, newest first, up to
	// limit. A limit of zero or less means no limit.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ExamResult, error)

	// ListForSubject returns the user's exam results for one subject,
	// newest first.
	ListForSubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ExamResult, error)

	// WithTx returns an ExamStore bound to the given transaction.
	WithTx(tx *sql.Tx) ExamStore
}
