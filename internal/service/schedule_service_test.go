package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/domain/priority"
	"github.com/bacready/bacready-api/internal/scheduling"
)

type scheduleFixture struct {
	service  *ScheduleService
	tx       *fakeTxRunner
	schedule *fakeScheduleStore
	sessions *fakeSessionStore
	settings *fakeSettingsStore
	subjects *fakeSubjectStore
	catalog  *fakeCatalog
}

func newScheduleFixture() *scheduleFixture {
	log := discardLogger()
	f := &scheduleFixture{
		tx:       &fakeTxRunner{},
		schedule: newFakeScheduleStore(),
		sessions: newFakeSessionStore(),
		settings: newFakeSettingsStore(),
		subjects: newFakeSubjectStore(),
		catalog:  &fakeCatalog{units: make(map[uuid.UUID][]catalog.StudyUnit)},
	}
	f.service = NewScheduleService(
		f.tx, f.schedule, f.sessions, f.settings, f.subjects,
		f.catalog, priority.NewService(), scheduling.NewGenerator(log), log,
	)
	return f
}

func (f *scheduleFixture) seedUser(t *testing.T) (userID uuid.UUID, subjectIDs []uuid.UUID) {
	t.Helper()
	userID = uuid.New()
	streamID := uuid.New()

	f.subjects.academic[userID] = &domain.AcademicContext{
		UserID:   userID,
		Phase:    "terminal",
		Year:     3,
		StreamID: streamID,
	}

	for i, name := range []string{"Mathematics", "Physics"} {
		id := uuid.New()
		f.subjects.addSubject(domain.SubjectPriority{
			SubjectID:   id,
			UserID:      userID,
			Name:        name,
			Category:    domain.CategoryHardCore,
			Coefficient: 5,
			Difficulty:  6,
			Selected:    true,
			LastScore:   -1,
			Order:       i,
		})
		subjectIDs = append(subjectIDs, id)
	}
	return userID, subjectIDs
}

func TestScheduleServiceGenerate(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	t.Run("creates an active schedule with sessions", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, subjectIDs := f.seedUser(t)

		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)
		require.NotNil(t, generated.Schedule)
		assert.Equal(t, domain.ScheduleStatusActive, generated.Schedule.Status)
		assert.NotEmpty(t, generated.Sessions)
		assert.Len(t, generated.Ranked, 2)

		stored, err := f.schedule.GetActiveForUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, generated.Schedule.ID, stored.ID)

		persisted, err := f.sessions.ListBySchedule(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.Len(t, persisted, len(generated.Sessions))

		study := 0
		for _, session := range generated.Sessions {
			if session.Type != domain.SessionTypeBreak {
				study++
			}
		}
		assert.Equal(t, study, generated.Schedule.TotalSessions)

		for _, id := range subjectIDs {
			assert.Contains(t, f.subjects.scores, id)
		}
	})

	t.Run("subject IDs narrow the run without touching the selection", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, subjectIDs := f.seedUser(t)

		generated, err := f.service.Generate(context.Background(), userID, start, end,
			[]uuid.UUID{subjectIDs[0]})
		require.NoError(t, err)
		require.Len(t, generated.Ranked, 1)
		assert.Equal(t, subjectIDs[0], generated.Ranked[0].SubjectID)

		selected, err := f.subjects.ListSelected(context.Background(), userID)
		require.NoError(t, err)
		assert.Len(t, selected, 2)
	})

	t.Run("narrowing to unselected subjects fails like an empty selection", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		_, err := f.service.Generate(context.Background(), userID, start, end,
			[]uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, scheduling.ErrNoSubjects)
	})

	t.Run("archives the previous active schedule", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		first, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)

		second, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)
		require.NotEqual(t, first.Schedule.ID, second.Schedule.ID)

		archived, err := f.schedule.GetByID(context.Background(), first.Schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ScheduleStatusArchived, archived.Status)

		active, err := f.schedule.GetActiveForUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, second.Schedule.ID, active.ID)
	})

	t.Run("requires an academic context", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()

		_, err := f.service.Generate(context.Background(), uuid.New(), start, end, nil)
		assert.ErrorIs(t, err, ErrNoAcademicContext)
	})

	t.Run("requires at least one selected subject", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, subjectIDs := f.seedUser(t)
		for _, id := range subjectIDs {
			f.subjects.subjects[id].Selected = false
		}

		_, err := f.service.Generate(context.Background(), userID, start, end, nil)
		assert.ErrorIs(t, err, scheduling.ErrNoSubjects)
	})

	t.Run("rejects an inverted date range", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		_, err := f.service.Generate(context.Background(), userID, end, start, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("no study days yields an empty schedule", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		settings := domain.DefaultSettings(userID)
		settings.StudyDays = []time.Weekday{time.Saturday}
		require.NoError(t, f.settings.Upsert(context.Background(), settings))

		// Monday through Wednesday, none of them a study day.
		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)
		assert.Empty(t, generated.Sessions)
		assert.Zero(t, generated.Schedule.TotalSessions)
	})

	t.Run("uses catalog content when available", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, subjectIDs := f.seedUser(t)

		nodeID := uuid.New()
		f.catalog.units[subjectIDs[0]] = []catalog.StudyUnit{
			{
				Node:          catalog.Node{ID: nodeID, Title: "Limits and continuity"},
				SuggestedType: domain.SessionTypeLessonReview,
			},
		}

		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)

		found := false
		for _, session := range generated.Sessions {
			if session.Content.Kind == domain.ContentKindNode && session.Content.NodeID == nodeID {
				found = true
			}
		}
		assert.True(t, found, "expected a session backed by the catalog node")
	})
}

func TestScheduleServiceRetrieval(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	t.Run("GetActive without a schedule", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		_, err := f.service.GetActive(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrNoActiveSchedule)
	})

	t.Run("GetActive returns sessions in order", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)

		active, err := f.service.GetActive(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, generated.Schedule.ID, active.Schedule.ID)
		for i := 1; i < len(active.Sessions); i++ {
			prev, cur := active.Sessions[i-1], active.Sessions[i]
			if prev.Date.Equal(cur.Date) {
				assert.LessOrEqual(t, prev.StartMinute, cur.StartMinute)
			} else {
				assert.True(t, prev.Date.Before(cur.Date))
			}
		}
	})

	t.Run("GetByID enforces ownership", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)

		_, err = f.service.GetByID(context.Background(), uuid.New(), generated.Schedule.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("GetDay filters by date", func(t *testing.T) {
		t.Parallel()
		f := newScheduleFixture()
		userID, _ := f.seedUser(t)

		generated, err := f.service.Generate(context.Background(), userID, start, end, nil)
		require.NoError(t, err)

		day, err := f.service.GetDay(context.Background(), userID, generated.Schedule.ID, start)
		require.NoError(t, err)
		require.NotEmpty(t, day)
		for _, session := range day {
			assert.True(t, session.Date.Equal(domain.DateOnly(start)))
		}
	})
}
