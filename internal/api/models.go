package api

import (
	"time"

	"github.com/google/uuid"
)

// Common request/response structures. Dates cross the wire as "YYYY-MM-DD";
// the mobile client works in whole calendar days.

// GenerateScheduleRequest defines the payload for schedule generation.
// SubjectIDs optionally narrows the run to a subset of the user's selected
// subjects; empty means all of them.
type GenerateScheduleRequest struct {
	StartDate  string      `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string      `json:"end_date"   validate:"required,datetime=2006-01-02"`
	SubjectIDs []uuid.UUID `json:"subject_ids" validate:"omitempty"`
}

// CompleteSessionRequest defines the payload for completing a session.
// Score is omitted for sessions without a graded outcome; a missing score
// is recorded as -1.
type CompleteSessionRequest struct {
	CompletionPercentage float64  `json:"completion_percentage" validate:"gte=0,lte=100"`
	ActualDuration       int      `json:"actual_duration_minutes" validate:"gte=0"`
	ActualPomodoros      int      `json:"actual_pomodoros" validate:"gte=0"`
	Score                *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
	Mood                 string   `json:"mood" validate:"omitempty,oneof=positive neutral negative"`
}

// ScoreOrUnset returns the score, or -1 when the client omitted it.
func (r *CompleteSessionRequest) ScoreOrUnset() float64 {
	if r.Score == nil {
		return -1
	}
	return *r.Score
}

// SkipSessionRequest defines the payload for skipping a session.
type SkipSessionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AdaptScheduleRequest defines the payload for a manual adaptation entry.
type AdaptScheduleRequest struct {
	Reason  string   `json:"reason"  validate:"required,max=500"`
	Changes []string `json:"changes" validate:"omitempty,dive,max=500"`
}

// SetSelectionRequest defines the payload for replacing the subject selection.
type SetSelectionRequest struct {
	SubjectIDs []uuid.UUID `json:"subject_ids" validate:"required,min=1"`
}

// SetFavoriteRequest defines the payload for flagging a favorite subject.
type SetFavoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// AcademicContextRequest defines the payload for setting the academic context.
type AcademicContextRequest struct {
	Phase    string    `json:"phase"     validate:"required"`
	Year     int       `json:"year"      validate:"required,gt=0"`
	StreamID uuid.UUID `json:"stream_id" validate:"required"`
}

// RecordExamRequest defines the payload for recording an exam result.
type RecordExamRequest struct {
	ExamID    uuid.UUID `json:"exam_id"    validate:"required"`
	SubjectID uuid.UUID `json:"subject_id" validate:"required"`
	Score     float64   `json:"score"      validate:"gte=0"`
	MaxScore  float64   `json:"max_score"  validate:"required,gt=0"`
}

// parseDate parses a "YYYY-MM-DD" wire date.
func parseDate(value string) (time.Time, error) {
	return time.Parse(time.DateOnly, value)
}
