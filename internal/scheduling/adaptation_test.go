package scheduling

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacready/bacready-api/internal/domain"
)

func completedTopicTest(t *testing.T) *domain.Session {
	t.Helper()
	session, err := domain.NewSession(
		uuid.New(), uuid.New(),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		10*60, 11*60,
		domain.SessionTypeTopicTest,
		domain.NodeContent(uuid.New(), "Limits"),
	)
	require.NoError(t, err)
	return session
}

// horizon gives the test's schedule a week of room past the test date.
func horizon(test *domain.Session) time.Time {
	return test.Date.AddDate(0, 0, 7)
}

func TestAdapter_React_InsufficientMastery(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())
	test := completedTopicTest(t)

	result, sessions, err := adapter.React(test, 45, settings, horizon(test))
	require.NoError(t, err)

	assert.True(t, result.Triggered)
	assert.Equal(t, OutcomeInsufficientMastery, result.Type)
	assert.InDelta(t, 45, result.Score, 0.001)
	assert.Equal(t, 4, result.SessionsAdded)
	assert.NotEmpty(t, result.Message)
	require.Len(t, sessions, 4)

	byType := make(map[domain.SessionType][]*domain.Session)
	for _, s := range sessions {
		byType[s.Type] = append(byType[s.Type], s)

		assert.Equal(t, test.ScheduleID, s.ScheduleID)
		assert.Equal(t, test.SubjectID, s.SubjectID)
		assert.Equal(t, test.ID, s.OriginTopicTestID)
		assert.Equal(t, domain.SessionStatusScheduled, s.Status)
		assert.Equal(t, test.Content.NodeID, s.Content.NodeID)
	}

	exercises := byType[domain.SessionTypeExercises]
	require.Len(t, exercises, 2)
	assert.Equal(t, test.Date.AddDate(0, 0, 1), exercises[0].Date)
	assert.Equal(t, test.Date.AddDate(0, 0, 2), exercises[1].Date)
	assert.Equal(t, test.Duration, exercises[0].Duration)

	retests := byType[domain.SessionTypeTopicTest]
	require.Len(t, retests, 1)
	assert.Equal(t, test.Date.AddDate(0, 0, 3), retests[0].Date)

	reviews := byType[domain.SessionTypeSpacedReview]
	require.Len(t, reviews, 1)
	assert.Equal(t, test.Date.AddDate(0, 0, 1), reviews[0].Date)
	assert.Equal(t, reviewMinutes, reviews[0].Duration)
}

func TestAdapter_React_NeedsReinforcement(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())
	test := completedTopicTest(t)

	result, sessions, err := adapter.React(test, 70, settings, horizon(test))
	require.NoError(t, err)

	assert.True(t, result.Triggered)
	assert.Equal(t, OutcomeNeedsReinforcement, result.Type)
	assert.Equal(t, 2, result.SessionsAdded)
	require.Len(t, sessions, 2)

	assert.Equal(t, domain.SessionTypeExercises, sessions[0].Type)
	assert.Equal(t, test.Date.AddDate(0, 0, 1), sessions[0].Date)

	assert.Equal(t, domain.SessionTypeSpacedReview, sessions[1].Type)
	assert.Equal(t, test.Date.AddDate(0, 0, 3), sessions[1].Date)
}

func TestAdapter_React_Mastered(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())
	test := completedTopicTest(t)

	result, sessions, err := adapter.React(test, 85, settings, horizon(test))
	require.NoError(t, err)

	assert.False(t, result.Triggered)
	assert.Equal(t, OutcomeMastered, result.Type)
	assert.Zero(t, result.SessionsAdded)
	assert.Empty(t, sessions)
	assert.NotEmpty(t, result.Message)
}

func TestAdapter_React_Thresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		score         float64
		wantType      AdaptationOutcome
		wantTriggered bool
	}{
		{name: "just below reinforcement", score: 59.9, wantType: OutcomeInsufficientMastery, wantTriggered: true},
		{name: "exactly sixty", score: 60, wantType: OutcomeNeedsReinforcement, wantTriggered: true},
		{name: "just below mastered", score: 79.9, wantType: OutcomeNeedsReinforcement, wantTriggered: true},
		{name: "exactly eighty", score: 80, wantType: OutcomeMastered, wantTriggered: false},
		{name: "perfect score", score: 100, wantType: OutcomeMastered, wantTriggered: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			adapter := NewAdapter(slog.Default())
			test := completedTopicTest(t)
			result, _, err := adapter.React(test, tc.score, domain.DefaultSettings(uuid.New()), horizon(test))
			require.NoError(t, err)
			assert.Equal(t, tc.wantType, result.Type)
			assert.Equal(t, tc.wantTriggered, result.Triggered)
		})
	}
}

func TestAdapter_React_Rejections(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())

	t.Run("nil session", func(t *testing.T) {
		t.Parallel()
		_, _, err := adapter.React(nil, 50, settings, time.Time{})
		assert.ErrorIs(t, err, ErrNotTopicTest)
	})

	t.Run("wrong session type", func(t *testing.T) {
		t.Parallel()
		session, err := domain.NewSession(
			uuid.New(), uuid.New(),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			10*60, 11*60,
			domain.SessionTypeExercises,
			domain.NodeContent(uuid.New(), "Limits"),
		)
		require.NoError(t, err)

		_, _, err = adapter.React(session, 50, settings, horizon(session))
		assert.ErrorIs(t, err, ErrNotTopicTest)
	})

	t.Run("negative score", func(t *testing.T) {
		t.Parallel()
		_, _, err := adapter.React(completedTopicTest(t), -1, settings, time.Time{})
		assert.ErrorIs(t, err, ErrNoScore)
	})

	t.Run("nil settings", func(t *testing.T) {
		t.Parallel()
		_, _, err := adapter.React(completedTopicTest(t), 50, nil, time.Time{})
		assert.ErrorIs(t, err, ErrNilSettings)
	})
}

func TestAdapter_React_LateSlotFlipsBeforeTest(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())

	// Test ends at midnight; the second same-day insertion cannot shift
	// forward, so it lands before the test's slot instead.
	test, err := domain.NewSession(
		uuid.New(), uuid.New(),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		23*60, 24*60,
		domain.SessionTypeTopicTest,
		domain.NodeContent(uuid.New(), "Limits"),
	)
	require.NoError(t, err)

	_, sessions, err := adapter.React(test, 45, settings, horizon(test))
	require.NoError(t, err)

	for _, s := range sessions {
		assert.GreaterOrEqual(t, s.StartMinute, 0)
		assert.LessOrEqual(t, s.EndMinute, 24*60)
		assert.Less(t, s.StartMinute, s.EndMinute)
	}
}

func TestAdapter_React_ClampsToScheduleEndDate(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	settings := domain.DefaultSettings(uuid.New())

	t.Run("test on the last day keeps insertions on that day", func(t *testing.T) {
		t.Parallel()
		test := completedTopicTest(t)

		_, sessions, err := adapter.React(test, 45, settings, test.Date)
		require.NoError(t, err)
		require.Len(t, sessions, 4)

		for _, s := range sessions {
			assert.Equal(t, test.Date, s.Date)
			assert.GreaterOrEqual(t, s.StartMinute, 0)
			assert.LessOrEqual(t, s.EndMinute, 24*60)
		}
		// The test still owns its own slot.
		for _, s := range sessions {
			assert.False(t, s.Date.Equal(test.Date) && s.StartMinute == test.StartMinute,
				"insertion collides with the test's slot")
		}
	})

	t.Run("test one day before the end collapses later days onto it", func(t *testing.T) {
		t.Parallel()
		test := completedTopicTest(t)
		endDate := test.Date.AddDate(0, 0, 1)

		_, sessions, err := adapter.React(test, 45, settings, endDate)
		require.NoError(t, err)
		require.Len(t, sessions, 4)

		for _, s := range sessions {
			assert.False(t, s.Date.After(endDate),
				"insertion on %s lands past the schedule end %s", s.Date, endDate)
		}
	})
}

func TestAdapter_React_ClampsScoreAboveHundred(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(slog.Default())
	test := completedTopicTest(t)
	result, _, err := adapter.React(test, 120, domain.DefaultSettings(uuid.New()), horizon(test))
	require.NoError(t, err)
	assert.InDelta(t, 100, result.Score, 0.001)
	assert.Equal(t, OutcomeMastered, result.Type)
}
