package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// ProgressStore defines the interface for content progress persistence.
// Progress is keyed by (user, node).
type ProgressStore interface {
	// Get retrieves the user's progress on one curriculum node.
	// Returns ErrProgressNotFound if the node has never been touched.
	Get(ctx context.Context, userID, nodeID uuid.UUID) (*domain.ContentProgress, error)

	// Upsert creates or replaces the progress row for (user, node).
	Upsert(ctx context.Context, progress *domain.ContentProgress) error

	// ListForSubject returns the user's progress rows for every node of a
	// subject. Nodes without a row are simply absent.
	ListForSubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ContentProgress, error)

	// ListDueForReview returns progress rows whose next review is at or
	// before the given time, soonest first, up to limit.
	ListDueForReview(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]*domain.ContentProgress, error)

	// WithTx returns a ProgressStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
