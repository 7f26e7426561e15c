package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SubjectCategory classifies a subject for category/energy matching.
type SubjectCategory string

// Possible subject category values.
const (
	CategoryHardCore     SubjectCategory = "hard_core"
	CategoryLanguage     SubjectCategory = "language"
	CategoryMemorization SubjectCategory = "memorization"
	CategoryOther        SubjectCategory = "other"
)

// IsValid reports whether the category is one of the recognized values.
func (c SubjectCategory) IsValid() bool {
	switch c {
	case CategoryHardCore, CategoryLanguage, CategoryMemorization, CategoryOther:
		return true
	default:
		return false
	}
}

// Subject-specific validation errors
var (
	// ErrSubjectIDEmpty is returned when a subject ID is empty or nil.
	ErrSubjectIDEmpty = errors.New("subject ID cannot be empty")

	// ErrInvalidCoefficient is returned when a coefficient is outside 1-7.
	ErrInvalidCoefficient = errors.New("coefficient must be between 1 and 7")

	// ErrInvalidDifficulty is returned when a difficulty is outside 1-10.
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 10")
)

// SubjectPriority is the per-user-subject input to the priority engine:
// academic weight, difficulty, recency and performance signals, plus the
// persisted output score of the last calculation.
type SubjectPriority struct {
	SubjectID   uuid.UUID       `json:"subject_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Category    SubjectCategory `json:"category"`
	Coefficient int             `json:"coefficient"` // Stream-specific academic weight, 1-7
	Difficulty  int             `json:"difficulty"`  // 1-10
	Selected    bool            `json:"selected"`
	Favorite    bool            `json:"favorite"`

	// LastScore is the most recent performance metric (0-100).
	// Negative means no score has been recorded yet.
	LastScore float64 `json:"last_score"`

	// LastStudiedAt is zero when the subject has never been studied.
	LastStudiedAt time.Time `json:"last_studied_at"`

	// ExamAt is zero when no exam date is known for the subject.
	ExamAt time.Time `json:"exam_at"`

	// Order is the subject's position in the catalog, used as the first
	// tie-break so rankings stay deterministic.
	Order int `json:"order"`

	// PriorityScore is the persisted output of the last calculation.
	PriorityScore float64 `json:"priority_score"`
}

// Validate checks if the SubjectPriority has valid data.
func (p *SubjectPriority) Validate() error {
	if p.SubjectID == uuid.Nil {
		return ErrSubjectIDEmpty
	}

	if !p.Category.IsValid() {
		return ErrInvalidCategory
	}

	if p.Coefficient < 1 || p.Coefficient > 7 {
		return ErrInvalidCoefficient
	}

	if p.Difficulty < 1 || p.Difficulty > 10 {
		return ErrInvalidDifficulty
	}

	return nil
}

// AcademicContext captures a user's academic situation: phase, year and
// stream. Schedule generation requires this to exist; the selected subjects
// come from an explicit user-subject relation, not a serialized ID list.
type AcademicContext struct {
	UserID     uuid.UUID `json:"user_id"`
	Phase      string    `json:"phase"` // e.g. "secondary", "terminal"
	Year       int       `json:"year"`
	StreamID   uuid.UUID `json:"stream_id"`
	StreamName string    `json:"stream_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks if the AcademicContext has valid data.
func (a *AcademicContext) Validate() error {
	if a.UserID == uuid.Nil {
		return NewValidationError("user_id", "cannot be empty", ErrValidation)
	}
	if a.StreamID == uuid.Nil {
		return NewValidationError("stream_id", "cannot be empty", ErrValidation)
	}
	if a.Phase == "" {
		return NewValidationError("phase", "cannot be empty", ErrValidation)
	}
	return nil
}
