package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// SessionType tags what kind of study unit a session is.
type SessionType string

// Possible session type values.
const (
	SessionTypeLessonReview  SessionType = "lesson_review"
	SessionTypeExercises     SessionType = "exercises"
	SessionTypeTopicTest     SessionType = "topic_test"
	SessionTypeSpacedReview  SessionType = "spaced_review"
	SessionTypeLanguageDaily SessionType = "language_daily"
	SessionTypeMockTest      SessionType = "mock_test"
	SessionTypeBreak         SessionType = "break"
)

// IsValid reports whether the session type is one of the recognized values.
func (t SessionType) IsValid() bool {
	switch t {
	case SessionTypeLessonReview, SessionTypeExercises, SessionTypeTopicTest,
		SessionTypeSpacedReview, SessionTypeLanguageDaily, SessionTypeMockTest,
		SessionTypeBreak:
		return true
	default:
		return false
	}
}

// SessionStatus describes the lifecycle state of a session.
type SessionStatus string

// Possible session status values.
const (
	SessionStatusScheduled  SessionStatus = "scheduled"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusPaused     SessionStatus = "paused"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusSkipped    SessionStatus = "skipped"
)

// SkipReasonMissed marks sessions the maintenance sweep skipped because
// their day passed without the session being started.
const SkipReasonMissed = "missed"

// IsValid reports whether the status is one of the recognized values.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusInProgress, SessionStatusPaused,
		SessionStatusCompleted, SessionStatusSkipped:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusSkipped
}

// CanTransitionTo reports whether the lifecycle state machine permits moving
// from the current status to the target status:
//
//	scheduled --start--> in_progress --pause--> paused --resume--> in_progress
//	in_progress --complete--> completed (terminal)
//	{scheduled,in_progress,paused} --skip--> skipped (terminal)
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch target {
	case SessionStatusInProgress:
		return s == SessionStatusScheduled || s == SessionStatusPaused
	case SessionStatusPaused:
		return s == SessionStatusInProgress
	case SessionStatusCompleted:
		return s == SessionStatusInProgress
	case SessionStatusSkipped:
		return s == SessionStatusScheduled || s == SessionStatusInProgress ||
			s == SessionStatusPaused
	default:
		return false
	}
}

// Mood is the user's self-reported mood recorded at session completion.
type Mood string

// Possible mood values. MoodUnset is the zero value for sessions that have
// not been completed or where the user declined to answer.
const (
	MoodUnset    Mood = ""
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// IsValid reports whether the mood is one of the recognized values.
func (m Mood) IsValid() bool {
	switch m {
	case MoodUnset, MoodPositive, MoodNeutral, MoodNegative:
		return true
	default:
		return false
	}
}

// ContentKind distinguishes content-backed sessions from placeholders.
type ContentKind string

// Possible content kind values.
const (
	// ContentKindNode links the session to a curriculum catalog node.
	ContentKindNode ContentKind = "node"
	// ContentKindPlaceholder carries only a display title; the catalog had
	// no content for the subject when the session was generated.
	ContentKindPlaceholder ContentKind = "placeholder"
)

// SessionContent is the tagged variant for a session's study material: it is
// either backed by a curriculum node or a titled placeholder, never both.
type SessionContent struct {
	Kind   ContentKind `json:"kind"`
	NodeID uuid.UUID   `json:"node_id,omitempty"` // Set only when Kind == ContentKindNode
	Title  string      `json:"title"`
}

// NodeContent returns content backed by the given curriculum node.
func NodeContent(nodeID uuid.UUID, title string) SessionContent {
	return SessionContent{Kind: ContentKindNode, NodeID: nodeID, Title: title}
}

// PlaceholderContent returns titled placeholder content with no catalog link.
func PlaceholderContent(title string) SessionContent {
	return SessionContent{Kind: ContentKindPlaceholder, Title: title}
}

// Validate checks the tagged-variant invariant.
func (c SessionContent) Validate() error {
	switch c.Kind {
	case ContentKindNode:
		if c.NodeID == uuid.Nil {
			return NewValidationError("content.node_id", "content-backed session requires a node ID", ErrValidation)
		}
	case ContentKindPlaceholder:
		if c.NodeID != uuid.Nil {
			return NewValidationError("content.node_id", "placeholder session cannot carry a node ID", ErrValidation)
		}
		if c.Title == "" {
			return NewValidationError("content.title", "placeholder session requires a title", ErrValidation)
		}
	default:
		return NewValidationError("content.kind", "unknown content kind", ErrValidation)
	}
	return nil
}

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionScheduleIDEmpty is returned when a session's schedule ID is empty.
	ErrSessionScheduleIDEmpty = errors.New("session schedule ID cannot be empty")

	// ErrSessionSubjectRequired is returned when a study session has no subject.
	ErrSessionSubjectRequired = errors.New("study session requires a subject")

	// ErrSessionDurationInvalid is returned when a session duration is not positive.
	ErrSessionDurationInvalid = errors.New("session duration must be positive")
)

// Session is one scheduled study or break unit inside a schedule.
// Start and end times are minutes from local midnight on Date.
type Session struct {
	ID          uuid.UUID      `json:"id"`
	ScheduleID  uuid.UUID      `json:"schedule_id"`
	SubjectID   uuid.UUID      `json:"subject_id,omitempty"` // Nil for break sessions
	Date        time.Time      `json:"date"`
	StartMinute int            `json:"start_minute"`
	EndMinute   int            `json:"end_minute"`
	Duration    int            `json:"duration_minutes"`
	Type        SessionType    `json:"type"`
	Status      SessionStatus  `json:"status"`
	Content     SessionContent `json:"content"`

	// Pomodoro bookkeeping
	PlannedPomodoros int `json:"planned_pomodoros"`
	ActualPomodoros  int `json:"actual_pomodoros"`
	PauseCount       int `json:"pause_count"`

	// Post-completion fields
	ActualStartAt        time.Time `json:"actual_start_at"`
	CompletedAt          time.Time `json:"completed_at"`
	ActualDuration       int       `json:"actual_duration_minutes"`
	Score                float64   `json:"score"` // -1 when not supplied
	CompletionPercentage float64   `json:"completion_percentage"`
	Mood                 Mood      `json:"mood,omitempty"`
	PointsEarned         int       `json:"points_earned"`
	SkipReason           string    `json:"skip_reason,omitempty"`

	// OriginTopicTestID links adaptation-inserted sessions back to the
	// topic test whose score triggered them.
	OriginTopicTestID uuid.UUID `json:"origin_topic_test_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a scheduled study session for the given subject and slot.
// Returns an error if validation fails.
func NewSession(
	scheduleID, subjectID uuid.UUID,
	date time.Time,
	startMinute, endMinute int,
	sessionType SessionType,
	content SessionContent,
) (*Session, error) {
	now := time.Now().UTC()
	session := &Session{
		ID:          uuid.New(),
		ScheduleID:  scheduleID,
		SubjectID:   subjectID,
		Date:        DateOnly(date),
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Duration:    endMinute - startMinute,
		Type:        sessionType,
		Status:      SessionStatusScheduled,
		Content:     content,
		Score:       -1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// NewBreakSession creates a break placeholder session. Breaks carry no
// subject and no catalog content.
func NewBreakSession(scheduleID uuid.UUID, date time.Time, startMinute, endMinute int) (*Session, error) {
	return NewSession(
		scheduleID,
		uuid.Nil,
		date,
		startMinute,
		endMinute,
		SessionTypeBreak,
		PlaceholderContent("Break"),
	)
}

// Validate checks if the Session has valid data.
// Returns an error if any field fails validation.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.ScheduleID == uuid.Nil {
		return ErrSessionScheduleIDEmpty
	}

	if !s.Type.IsValid() {
		return ErrInvalidSessionType
	}

	if !s.Status.IsValid() {
		return ErrInvalidSessionStatus
	}

	if s.Type != SessionTypeBreak && s.SubjectID == uuid.Nil {
		return ErrSessionSubjectRequired
	}

	if s.StartMinute < 0 || s.EndMinute > minutesPerDay || s.EndMinute <= s.StartMinute {
		return ErrInvalidTimeRange
	}

	if s.Duration <= 0 {
		return ErrSessionDurationInvalid
	}

	if s.CompletionPercentage < 0 || s.CompletionPercentage > 100 {
		return ErrInvalidCompletionPercentage
	}

	if !s.Mood.IsValid() {
		return NewValidationError("mood", "unknown mood value", ErrValidation)
	}

	return s.Content.Validate()
}

// minutesPerDay is the number of minutes in a calendar day.
const minutesPerDay = 24 * 60

// maxSessionPoints caps the points awarded for completing a single session.
const maxSessionPoints = 25

// CalculatePoints computes the points earned for a completed session:
// base 10, up to 5 for completion percentage, up to 5 for focus (no pauses),
// 3 for finishing within the scheduled duration, 2 for a positive mood.
// The total is capped at 25.
func CalculatePoints(
	completionPercentage float64,
	pauseCount int,
	actualDuration, scheduledDuration int,
	mood Mood,
) int {
	points := 10

	points += int(math.Round(completionPercentage / 100 * 5))

	if pauseCount == 0 {
		points += 5
	} else if bonus := 5 - pauseCount; bonus > 0 {
		points += bonus
	}

	if actualDuration <= scheduledDuration {
		points += 3
	}

	if mood == MoodPositive {
		points += 2
	}

	if points > maxSessionPoints {
		points = maxSessionPoints
	}
	return points
}
