package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Progress-specific validation errors
var (
	// ErrProgressUserIDEmpty is returned when progress has no user ID.
	ErrProgressUserIDEmpty = errors.New("content progress user ID cannot be empty")

	// ErrProgressNodeIDEmpty is returned when progress has no node ID.
	ErrProgressNodeIDEmpty = errors.New("content progress node ID cannot be empty")

	// ErrInvalidMasteryScore is returned when a mastery score is outside [0,100].
	ErrInvalidMasteryScore = errors.New("mastery score must be between 0 and 100")
)

// ContentPhase names one of the independently completable phases of a
// curriculum node.
type ContentPhase string

// Possible content phase values.
const (
	PhaseUnderstanding    ContentPhase = "understanding"
	PhaseReview           ContentPhase = "review"
	PhaseTheoryPractice   ContentPhase = "theory_practice"
	PhaseExercisePractice ContentPhase = "exercise_practice"
)

// PhaseForSessionType maps a study session type to the content phase it
// advances. Break and mock-test sessions map to no phase.
func PhaseForSessionType(t SessionType) (ContentPhase, bool) {
	switch t {
	case SessionTypeLessonReview:
		return PhaseUnderstanding, true
	case SessionTypeSpacedReview, SessionTypeLanguageDaily:
		return PhaseReview, true
	case SessionTypeTopicTest:
		return PhaseTheoryPractice, true
	case SessionTypeExercises:
		return PhaseExercisePractice, true
	default:
		return "", false
	}
}

// ContentProgress tracks one user's progress through one curriculum node:
// which phases are complete, how much time has gone in, and when the node is
// next due for spaced review.
type ContentProgress struct {
	UserID uuid.UUID `json:"user_id"`
	NodeID uuid.UUID `json:"node_id"`

	Understanding    bool `json:"understanding"`
	Review           bool `json:"review"`
	TheoryPractice   bool `json:"theory_practice"`
	ExercisePractice bool `json:"exercise_practice"`

	MasteryScore     float64   `json:"mastery_score"`
	TimeSpentMinutes int       `json:"time_spent_minutes"`
	StudyCount       int       `json:"study_count"`
	NextReviewAt     time.Time `json:"next_review_at"`
	LastStudiedAt    time.Time `json:"last_studied_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewContentProgress creates empty progress for a user and node.
func NewContentProgress(userID, nodeID uuid.UUID) (*ContentProgress, error) {
	now := time.Now().UTC()
	progress := &ContentProgress{
		UserID:    userID,
		NodeID:    nodeID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := progress.Validate(); err != nil {
		return nil, err
	}

	return progress, nil
}

// Validate checks if the ContentProgress has valid data.
func (p *ContentProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if p.NodeID == uuid.Nil {
		return ErrProgressNodeIDEmpty
	}

	if p.MasteryScore < 0 || p.MasteryScore > 100 {
		return ErrInvalidMasteryScore
	}

	if p.TimeSpentMinutes < 0 || p.StudyCount < 0 {
		return NewValidationError("time_spent_minutes", "counters cannot be negative", ErrValidation)
	}

	return nil
}

// PhaseComplete reports whether the given phase is complete.
func (p *ContentProgress) PhaseComplete(phase ContentPhase) bool {
	switch phase {
	case PhaseUnderstanding:
		return p.Understanding
	case PhaseReview:
		return p.Review
	case PhaseTheoryPractice:
		return p.TheoryPractice
	case PhaseExercisePractice:
		return p.ExercisePractice
	default:
		return false
	}
}

// AllPhasesComplete reports whether every phase of the node is complete.
func (p *ContentProgress) AllPhasesComplete() bool {
	return p.Understanding && p.Review && p.TheoryPractice && p.ExercisePractice
}

// IsDueForReview reports whether the node's spaced review is due.
// Nodes that have never been studied are not due.
func (p *ContentProgress) IsDueForReview(now time.Time) bool {
	if p.NextReviewAt.IsZero() {
		return false
	}
	return !p.NextReviewAt.After(now)
}
