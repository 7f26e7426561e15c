package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scheduling services.
const (
	// TypeSessionCompleted fires after a session reaches the completed
	// state and its points are awarded.
	TypeSessionCompleted = "session.completed"

	// TypeSessionSkipped fires after a session is skipped.
	TypeSessionSkipped = "session.skipped"

	// TypeScheduleAdapted fires after adaptation inserts sessions into the
	// active schedule.
	TypeScheduleAdapted = "schedule.adapted"

	// TypeExamRecorded fires after an exam result is stored.
	TypeExamRecorded = "exam.recorded"
)

// Event is a typed envelope for a domain event. The payload is serialized
// JSON so handlers stay decoupled from service types.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event of the given type with the payload serialized
// to JSON.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// SessionCompletedPayload is the payload of TypeSessionCompleted and
// TypeSessionSkipped events.
type SessionCompletedPayload struct {
	SessionID    uuid.UUID `json:"session_id"`
	ScheduleID   uuid.UUID `json:"schedule_id"`
	UserID       uuid.UUID `json:"user_id"`
	SubjectID    uuid.UUID `json:"subject_id,omitempty"`
	NodeID       uuid.UUID `json:"node_id,omitempty"`
	SessionType  string    `json:"session_type"`
	Score        float64   `json:"score"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}

// ScheduleAdaptedPayload is the payload of TypeScheduleAdapted events.
type ScheduleAdaptedPayload struct {
	ScheduleID    uuid.UUID `json:"schedule_id"`
	UserID        uuid.UUID `json:"user_id"`
	Outcome       string    `json:"outcome"`
	SessionsAdded int       `json:"sessions_added"`
}

// ExamRecordedPayload is the payload of TypeExamRecorded events.
type ExamRecordedPayload struct {
	ExamResultID        uuid.UUID `json:"exam_result_id"`
	UserID              uuid.UUID `json:"user_id"`
	SubjectID           uuid.UUID `json:"subject_id,omitempty"`
	Percentage          float64   `json:"percentage"`
	Grade               string    `json:"grade"`
	TriggeredAdaptation bool      `json:"triggered_adaptation"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
