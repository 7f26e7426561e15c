package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus describes the lifecycle state of a schedule.
type ScheduleStatus string

// Possible schedule status values. A user has exactly one active schedule at
// any time; superseded schedules are archived, never deleted.
const (
	ScheduleStatusActive   ScheduleStatus = "active"
	ScheduleStatusArchived ScheduleStatus = "archived"
)

// Schedule-specific validation errors
var (
	// ErrScheduleIDEmpty is returned when a schedule ID is empty or nil.
	ErrScheduleIDEmpty = errors.New("schedule ID cannot be empty")

	// ErrScheduleUserIDEmpty is returned when a schedule's user ID is empty or nil.
	ErrScheduleUserIDEmpty = errors.New("schedule user ID cannot be empty")

	// ErrScheduleInvalidStatus is returned when a schedule status is not valid.
	ErrScheduleInvalidStatus = errors.New("invalid schedule status")
)

// Schedule is a user's date-ranged study plan. It owns the sessions produced
// by a generation run and keeps aggregate counters over them.
type Schedule struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	StartDate         time.Time      `json:"start_date"` // Date resolution, midnight local
	EndDate           time.Time      `json:"end_date"`   // Inclusive
	Status            ScheduleStatus `json:"status"`
	TotalSessions     int            `json:"total_sessions"`
	CompletedSessions int            `json:"completed_sessions"`
	SkippedSessions   int            `json:"skipped_sessions"`
	CompletionRate    float64        `json:"completion_rate"` // 0-100
	AdaptationCount   int            `json:"adaptation_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewSchedule creates a new active Schedule for the given user and date range.
// It generates a new UUID for the schedule and sets the timestamps.
// Returns an error if validation fails.
func NewSchedule(userID uuid.UUID, startDate, endDate time.Time) (*Schedule, error) {
	now := time.Now().UTC()
	schedule := &Schedule{
		ID:        uuid.New(),
		UserID:    userID,
		StartDate: DateOnly(startDate),
		EndDate:   DateOnly(endDate),
		Status:    ScheduleStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	return schedule, nil
}

// Validate checks if the Schedule has valid data.
// Returns an error if any field fails validation.
func (s *Schedule) Validate() error {
	if s.ID == uuid.Nil {
		return ErrScheduleIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrScheduleUserIDEmpty
	}

	if s.EndDate.Before(s.StartDate) {
		return ErrInvalidDateRange
	}

	switch s.Status {
	case ScheduleStatusActive, ScheduleStatusArchived:
	default:
		return ErrScheduleInvalidStatus
	}

	return nil
}

// ContainsDate reports whether the given date falls within the schedule's
// inclusive date range. Sessions must always lie within this range.
func (s *Schedule) ContainsDate(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

// RecalculateCompletionRate recomputes CompletionRate from the session
// counters. A schedule with no sessions has a completion rate of zero.
func (s *Schedule) RecalculateCompletionRate() {
	if s.TotalSessions == 0 {
		s.CompletionRate = 0
		return
	}
	s.CompletionRate = float64(s.CompletedSessions) / float64(s.TotalSessions) * 100
}

// DateOnly truncates a time to midnight UTC, preserving only the calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdaptationRecord is one entry in a schedule's adaptation audit trail.
// Entries are ordered by timestamp and never mutated after insertion.
type AdaptationRecord struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason"`
	Changes    []string  `json:"changes"`
}

// NewAdaptationRecord creates an audit-trail entry for the given schedule.
func NewAdaptationRecord(scheduleID uuid.UUID, reason string, changes []string) (*AdaptationRecord, error) {
	if scheduleID == uuid.Nil {
		return nil, ErrScheduleIDEmpty
	}
	if reason == "" {
		return nil, NewValidationError("reason", "cannot be empty", ErrValidation)
	}

	return &AdaptationRecord{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		Timestamp:  time.Now().UTC(),
		Reason:     reason,
		Changes:    changes,
	}, nil
}
