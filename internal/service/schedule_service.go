package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/domain/priority"
	"github.com/bacready/bacready-api/internal/domain/timewindow"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/scheduling"
	"github.com/bacready/bacready-api/internal/store"
)

// ScheduleService orchestrates schedule generation and retrieval. A
// generation run ranks the user's selected subjects, derives day windows
// from settings, asks the generator for sessions and replaces the user's
// active schedule atomically.
type ScheduleService struct {
	tx            TxRunner
	scheduleStore store.ScheduleStore
	sessionStore  store.SessionStore
	settingsStore store.SettingsStore
	subjectStore  store.SubjectStore
	catalog       catalog.Service
	priority      priority.Service
	generator     *scheduling.Generator
	logger        *slog.Logger
}

// NewScheduleService creates a ScheduleService with its dependencies.
func NewScheduleService(
	tx TxRunner,
	scheduleStore store.ScheduleStore,
	sessionStore store.SessionStore,
	settingsStore store.SettingsStore,
	subjectStore store.SubjectStore,
	catalogService catalog.Service,
	priorityService priority.Service,
	generator *scheduling.Generator,
	log *slog.Logger,
) *ScheduleService {
	if tx == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tx runner cannot be nil")
	}
	if scheduleStore == nil || sessionStore == nil || settingsStore == nil || subjectStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stores cannot be nil")
	}
	if catalogService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("catalog service cannot be nil")
	}
	if priorityService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("priority service cannot be nil")
	}
	if generator == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("generator cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ScheduleService{
		tx:            tx,
		scheduleStore: scheduleStore,
		sessionStore:  sessionStore,
		settingsStore: settingsStore,
		subjectStore:  subjectStore,
		catalog:       catalogService,
		priority:      priorityService,
		generator:     generator,
		logger:        log.With(slog.String("component", "schedule_service")),
	}
}

// GeneratedSchedule bundles a generation run's output.
type GeneratedSchedule struct {
	Schedule *domain.Schedule         `json:"schedule"`
	Sessions []*domain.Session        `json:"sessions"`
	Ranked   []domain.SubjectPriority `json:"ranked_subjects"`
}

// Generate builds a new schedule for the date range and installs it as the
// user's active schedule. The previous active schedule is archived in the
// same transaction that creates the new one, so a failed generation leaves
// the old schedule untouched. Requires an academic context and at least one
// selected subject. A non-empty subjectIDs narrows the run to those subjects
// without touching the persisted selection.
func (s *ScheduleService) Generate(
	ctx context.Context,
	userID uuid.UUID,
	startDate, endDate time.Time,
	subjectIDs []uuid.UUID,
) (*GeneratedSchedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if endDate.Before(startDate) {
		return nil, domain.ErrInvalidDateRange
	}

	academic, err := s.subjectStore.GetAcademicContext(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrAcademicContextNotFound) {
			log.Warn("generation without academic context",
				slog.String("user_id", userID.String()))
			return nil, ErrNoAcademicContext
		}
		return nil, fmt.Errorf("failed to load academic context: %w", err)
	}

	subjects, err := s.subjectStore.ListSelected(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected subjects: %w", err)
	}
	if len(subjectIDs) > 0 {
		requested := make(map[uuid.UUID]bool, len(subjectIDs))
		for _, id := range subjectIDs {
			requested[id] = true
		}
		narrowed := subjects[:0]
		for _, subject := range subjects {
			if requested[subject.SubjectID] {
				narrowed = append(narrowed, subject)
			}
		}
		subjects = narrowed
	}
	if len(subjects) == 0 {
		return nil, scheduling.ErrNoSubjects
	}

	settings, err := s.resolveSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ranked := s.priority.Rank(subjects, settings.Weights, now)

	days := timewindow.NewBuilder(settings).Build(startDate, endDate)

	content, err := s.loadContent(ctx, userID, academic.StreamID, ranked, len(days)*settings.MaxSessionsPerSubjectPerDay)
	if err != nil {
		return nil, err
	}

	schedule, err := domain.NewSchedule(userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	sessions, err := s.generator.Generate(scheduling.Input{
		ScheduleID: schedule.ID,
		Days:       days,
		Subjects:   ranked,
		Settings:   settings,
		Content:    content,
	})
	if err != nil {
		return nil, fmt.Errorf("session generation failed: %w", err)
	}

	schedule.TotalSessions = countStudySessions(sessions)
	schedule.RecalculateCompletionRate()

	scores := make(map[uuid.UUID]float64, len(ranked))
	for _, subject := range ranked {
		scores[subject.SubjectID] = subject.PriorityScore
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.scheduleStore.WithTx(tx).ArchiveActiveForUser(ctx, userID); err != nil {
			return err
		}
		if err := s.scheduleStore.WithTx(tx).Create(ctx, schedule); err != nil {
			return err
		}
		if err := s.sessionStore.WithTx(tx).CreateBatch(ctx, sessions); err != nil {
			return err
		}
		return s.subjectStore.WithTx(tx).UpdatePriorityScores(ctx, userID, scores)
	})
	if err != nil {
		log.Error("failed to install generated schedule",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to install schedule: %w", err)
	}

	log.Info("schedule generated",
		slog.String("schedule_id", schedule.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("sessions", len(sessions)),
		slog.Int("study_sessions", schedule.TotalSessions))

	return &GeneratedSchedule{Schedule: schedule, Sessions: sessions, Ranked: ranked}, nil
}

// GetActive returns the user's active schedule with its sessions.
func (s *ScheduleService) GetActive(ctx context.Context, userID uuid.UUID) (*GeneratedSchedule, error) {
	schedule, err := s.scheduleStore.GetActiveForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			return nil, ErrNoActiveSchedule
		}
		return nil, fmt.Errorf("failed to load active schedule: %w", err)
	}

	sessions, err := s.sessionStore.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule sessions: %w", err)
	}
	return &GeneratedSchedule{Schedule: schedule, Sessions: sessions}, nil
}

// GetByID returns one of the user's schedules with its sessions.
// Returns ErrNotOwned when the schedule belongs to someone else.
func (s *ScheduleService) GetByID(ctx context.Context, userID, scheduleID uuid.UUID) (*GeneratedSchedule, error) {
	schedule, err := s.ownedSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessionStore.ListBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule sessions: %w", err)
	}
	return &GeneratedSchedule{Schedule: schedule, Sessions: sessions}, nil
}

// GetDay returns the sessions of one calendar day of a schedule.
func (s *ScheduleService) GetDay(ctx context.Context, userID, scheduleID uuid.UUID, date time.Time) ([]*domain.Session, error) {
	if _, err := s.ownedSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	sessions, err := s.sessionStore.ListByScheduleAndDate(ctx, scheduleID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load day sessions: %w", err)
	}
	return sessions, nil
}

// ListForUser returns the user's schedules, newest first.
func (s *ScheduleService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Schedule, error) {
	schedules, err := s.scheduleStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// ListAdaptations returns a schedule's adaptation audit trail.
func (s *ScheduleService) ListAdaptations(ctx context.Context, userID, scheduleID uuid.UUID) ([]*domain.AdaptationRecord, error) {
	if _, err := s.ownedSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}
	records, err := s.scheduleStore.ListAdaptationRecords(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adaptation records: %w", err)
	}
	return records, nil
}

// Adapt appends a manual entry to a schedule's adaptation audit trail and
// bumps its adaptation counter. Automatic adaptations after topic tests go
// through the session completion path instead.
func (s *ScheduleService) Adapt(
	ctx context.Context,
	userID, scheduleID uuid.UUID,
	reason string,
	changes []string,
) (*domain.AdaptationRecord, error) {
	if _, err := s.ownedSchedule(ctx, userID, scheduleID); err != nil {
		return nil, err
	}

	record, err := domain.NewAdaptationRecord(scheduleID, reason, changes)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		schedule, err := s.scheduleStore.WithTx(tx).GetByID(ctx, scheduleID)
		if err != nil {
			return err
		}
		if err := s.scheduleStore.WithTx(tx).CreateAdaptationRecord(ctx, record); err != nil {
			return err
		}
		schedule.AdaptationCount++
		return s.scheduleStore.WithTx(tx).Update(ctx, schedule)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record adaptation: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("schedule adapted",
		slog.String("schedule_id", scheduleID.String()),
		slog.String("reason", reason),
		slog.Int("changes", len(changes)))
	return record, nil
}

// ownedSchedule loads a schedule and verifies the caller owns it.
func (s *ScheduleService) ownedSchedule(ctx context.Context, userID, scheduleID uuid.UUID) (*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	schedule, err := s.scheduleStore.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if schedule.UserID != userID {
		log.Warn("schedule access denied",
			slog.String("schedule_id", scheduleID.String()),
			slog.String("user_id", userID.String()),
			slog.String("owner_id", schedule.UserID.String()))
		return nil, ErrNotOwned
	}
	return schedule, nil
}

// resolveSettings loads the user's settings, falling back to the declared
// defaults when none are stored.
func (s *ScheduleService) resolveSettings(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSettingsNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// loadContent resolves the next study units per subject. A subject with no
// catalog content maps to an empty queue, which the generator turns into
// placeholder sessions.
func (s *ScheduleService) loadContent(
	ctx context.Context,
	userID, streamID uuid.UUID,
	subjects []domain.SubjectPriority,
	perSubjectLimit int,
) (map[uuid.UUID][]catalog.StudyUnit, error) {
	content := make(map[uuid.UUID][]catalog.StudyUnit, len(subjects))
	for _, subject := range subjects {
		units, err := s.catalog.NextUncompleted(ctx, userID, subject.SubjectID, streamID, perSubjectLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load content for subject %s: %w", subject.SubjectID, err)
		}
		content[subject.SubjectID] = units
	}
	return content, nil
}

func countStudySessions(sessions []*domain.Session) int {
	count := 0
	for _, session := range sessions {
		if session.Type != domain.SessionTypeBreak {
			count++
		}
	}
	return count
}
