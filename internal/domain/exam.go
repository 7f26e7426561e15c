package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Exam-specific validation errors
var (
	// ErrExamResultIDEmpty is returned when an exam result ID is empty.
	ErrExamResultIDEmpty = errors.New("exam result ID cannot be empty")

	// ErrExamMaxScoreInvalid is returned when the max score is not positive.
	ErrExamMaxScoreInvalid = errors.New("exam max score must be positive")

	// ErrExamScoreOutOfRange is returned when the score is negative or
	// exceeds the max score.
	ErrExamScoreOutOfRange = errors.New("exam score must be between 0 and the max score")
)

// adaptationThreshold is the percentage below which an exam result flags
// the schedule for adaptation.
const adaptationThreshold = 60

// ExamResult records a user's outcome on an exam and the derived grade.
type ExamResult struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ExamID    uuid.UUID `json:"exam_id"`
	SubjectID uuid.UUID `json:"subject_id,omitempty"`

	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`

	// TriggeredAdaptation is set when the percentage falls below 60,
	// signalling that the schedule should be adapted.
	TriggeredAdaptation bool `json:"triggered_adaptation"`

	RecordedAt time.Time `json:"recorded_at"`
}

// NewExamResult derives the percentage, letter grade and adaptation flag
// from a raw score. Returns an error if validation fails.
func NewExamResult(userID, examID, subjectID uuid.UUID, score, maxScore float64) (*ExamResult, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("user_id", "cannot be empty", ErrValidation)
	}
	if examID == uuid.Nil {
		return nil, NewValidationError("exam_id", "cannot be empty", ErrValidation)
	}
	if maxScore <= 0 {
		return nil, ErrExamMaxScoreInvalid
	}
	if score < 0 || score > maxScore {
		return nil, ErrExamScoreOutOfRange
	}

	percentage := score / maxScore * 100

	return &ExamResult{
		ID:                  uuid.New(),
		UserID:              userID,
		ExamID:              examID,
		SubjectID:           subjectID,
		Score:               score,
		MaxScore:            maxScore,
		Percentage:          percentage,
		Grade:               LetterGrade(percentage),
		TriggeredAdaptation: percentage < adaptationThreshold,
		RecordedAt:          time.Now().UTC(),
	}, nil
}

// LetterGrade maps a percentage to a letter grade using fixed cutoffs:
// >=90 A, >=80 B, >=70 C, >=60 D, >=50 E, else F.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	case percentage >= 50:
		return "E"
	default:
		return "F"
	}
}
