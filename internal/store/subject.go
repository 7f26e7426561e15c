package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// SubjectStore defines the interface for subject and academic-context
// persistence. Subject selection is an explicit user-subject relation;
// priority inputs join the subject catalog with the user's relation row.
type SubjectStore interface {
	// ListPriorities returns the priority inputs for every subject attached
	// to the user, in catalog order.
	ListPriorities(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error)

	// ListSelected returns the priority inputs for the user's selected
	// subjects only, in catalog order.
	ListSelected(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error)

	// SetSelection replaces the user's subject selection with the given
	// set. Subjects outside the set are deselected, not detached.
	// Returns ErrSubjectNotFound if any ID is not attached to the user.
	SetSelection(ctx context.Context, userID uuid.UUID, subjectIDs []uuid.UUID) error

	// SetFavorite flags or unflags one subject as a favorite.
	// Returns ErrSubjectNotFound if the subject is not attached to the user.
	SetFavorite(ctx context.Context, userID, subjectID uuid.UUID, favorite bool) error

	// UpdatePriorityScores persists the engine's calculated scores.
	UpdatePriorityScores(ctx context.Context, userID uuid.UUID, scores map[uuid.UUID]float64) error

	// RecordStudy updates the subject's recency signal after a completed
	// session. A negative score leaves the last score untouched.
	RecordStudy(ctx context.Context, userID, subjectID uuid.UUID, studiedAt time.Time, score float64) error

	// GetAcademicContext retrieves the user's academic context.
	// Returns ErrAcademicContextNotFound if none is recorded.
	GetAcademicContext(ctx context.Context, userID uuid.UUID) (*domain.AcademicContext, error)

	// UpsertAcademicContext creates or replaces the user's academic context
	// and attaches the stream's subjects to the user.
	UpsertAcademicContext(ctx context.Context, context *domain.AcademicContext) error

	// WithTx returns a SubjectStore bound to the given transaction.
	WithTx(tx *sql.Tx) SubjectStore
}
