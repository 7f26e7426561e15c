package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	start := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)

	schedule, err := NewSchedule(userID, start, end)
	require.NoError(t, err)

	assert.Equal(t, ScheduleStatusActive, schedule.Status)
	assert.Equal(t, userID, schedule.UserID)
	// Date range is truncated to date resolution.
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), schedule.StartDate)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), schedule.EndDate)
}

func TestNewScheduleInvalid(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewSchedule(uuid.New(), start, end)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = NewSchedule(uuid.Nil, end, start)
	assert.ErrorIs(t, err, ErrScheduleUserIDEmpty)
}

func TestScheduleContainsDate(t *testing.T) {
	t.Parallel()

	schedule, err := NewSchedule(
		uuid.New(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	assert.True(t, schedule.ContainsDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, schedule.ContainsDate(time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)))
	assert.True(t, schedule.ContainsDate(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)))
	assert.False(t, schedule.ContainsDate(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.False(t, schedule.ContainsDate(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)))
}

func TestRecalculateCompletionRate(t *testing.T) {
	t.Parallel()

	schedule, err := NewSchedule(
		uuid.New(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	// Zero total sessions is not an error and yields a zero rate.
	schedule.RecalculateCompletionRate()
	assert.Equal(t, float64(0), schedule.CompletionRate)

	schedule.TotalSessions = 8
	schedule.CompletedSessions = 2
	schedule.RecalculateCompletionRate()
	assert.Equal(t, float64(25), schedule.CompletionRate)

	schedule.CompletedSessions = 8
	schedule.RecalculateCompletionRate()
	assert.Equal(t, float64(100), schedule.CompletionRate)
}

func TestNewAdaptationRecord(t *testing.T) {
	t.Parallel()

	scheduleID := uuid.New()
	record, err := NewAdaptationRecord(scheduleID, "low topic test score", []string{"added 2 exercises sessions"})
	require.NoError(t, err)
	assert.Equal(t, scheduleID, record.ScheduleID)
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.False(t, record.Timestamp.IsZero())

	_, err = NewAdaptationRecord(uuid.Nil, "reason", nil)
	assert.ErrorIs(t, err, ErrScheduleIDEmpty)

	_, err = NewAdaptationRecord(scheduleID, "", nil)
	assert.ErrorIs(t, err, ErrValidation)
}
