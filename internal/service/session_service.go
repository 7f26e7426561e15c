package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/domain/spacedrep"
	"github.com/bacready/bacready-api/internal/events"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/scheduling"
	"github.com/bacready/bacready-api/internal/store"
)

// SessionService drives the session lifecycle state machine. Status
// transitions go through the store's compare-and-set so concurrent requests
// cannot double-complete a session, and completion fans out into points,
// schedule counters, subject recency, spaced-repetition progress and
// (for topic tests) adaptation.
type SessionService struct {
	tx            TxRunner
	sessionStore  store.SessionStore
	scheduleStore store.ScheduleStore
	subjectStore  store.SubjectStore
	progressStore store.ProgressStore
	settingsStore store.SettingsStore
	spacedRep     *spacedrep.Scheduler
	adapter       *scheduling.Adapter
	emitter       events.EventEmitter
	logger        *slog.Logger
}

// NewSessionService creates a SessionService with its dependencies.
func NewSessionService(
	tx TxRunner,
	sessionStore store.SessionStore,
	scheduleStore store.ScheduleStore,
	subjectStore store.SubjectStore,
	progressStore store.ProgressStore,
	settingsStore store.SettingsStore,
	spacedRep *spacedrep.Scheduler,
	adapter *scheduling.Adapter,
	emitter events.EventEmitter,
	log *slog.Logger,
) *SessionService {
	if tx == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tx runner cannot be nil")
	}
	if sessionStore == nil || scheduleStore == nil || subjectStore == nil ||
		progressStore == nil || settingsStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stores cannot be nil")
	}
	if spacedRep == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("spaced repetition scheduler cannot be nil")
	}
	if adapter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("adapter cannot be nil")
	}
	if emitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &SessionService{
		tx:            tx,
		sessionStore:  sessionStore,
		scheduleStore: scheduleStore,
		subjectStore:  subjectStore,
		progressStore: progressStore,
		settingsStore: settingsStore,
		spacedRep:     spacedRep,
		adapter:       adapter,
		emitter:       emitter,
		logger:        log.With(slog.String("component", "session_service")),
	}
}

// CompletionInput carries the client-reported facts of a finished session.
type CompletionInput struct {
	CompletionPercentage float64     `json:"completion_percentage"`
	ActualDuration       int         `json:"actual_duration_minutes"`
	ActualPomodoros      int         `json:"actual_pomodoros"`
	Score                float64     `json:"score"` // -1 when not applicable
	Mood                 domain.Mood `json:"mood"`
}

// CompletionResult bundles the completed session with what completing it
// caused: points earned and, for topic tests, the adaptation outcome.
type CompletionResult struct {
	Session    *domain.Session              `json:"session"`
	Adaptation *scheduling.AdaptationResult `json:"adaptation,omitempty"`
}

// Start moves a scheduled session to in_progress and stamps the actual
// start time.
func (s *SessionService) Start(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	if _, err := s.ownedStudySession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session, err := s.sessionStore.UpdateStatusCAS(ctx, sessionID,
		domain.SessionStatusScheduled, domain.SessionStatusInProgress,
		func(session *domain.Session) {
			session.ActualStartAt = now
		})
	if err != nil {
		return nil, s.mapTransitionError(ctx, err, sessionID, "start")
	}
	return session, nil
}

// Pause moves an in_progress session to paused and counts the pause, which
// later reduces the focus bonus on completion.
func (s *SessionService) Pause(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	if _, err := s.ownedStudySession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	session, err := s.sessionStore.UpdateStatusCAS(ctx, sessionID,
		domain.SessionStatusInProgress, domain.SessionStatusPaused,
		func(session *domain.Session) {
			session.PauseCount++
		})
	if err != nil {
		return nil, s.mapTransitionError(ctx, err, sessionID, "pause")
	}
	return session, nil
}

// Resume moves a paused session back to in_progress.
func (s *SessionService) Resume(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	if _, err := s.ownedStudySession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	session, err := s.sessionStore.UpdateStatusCAS(ctx, sessionID,
		domain.SessionStatusPaused, domain.SessionStatusInProgress, nil)
	if err != nil {
		return nil, s.mapTransitionError(ctx, err, sessionID, "resume")
	}
	return session, nil
}

// Complete moves an in_progress session to completed, awards points and
// fans out the side effects: schedule counters, subject recency, content
// progress, and adaptation when the session is a topic test with a score.
// The CAS transition and the fan-out run in one transaction, so a failed
// fan-out rolls the status back and the completion can be retried.
func (s *SessionService) Complete(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	input CompletionInput,
) (*CompletionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.ownedStudySession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	if input.CompletionPercentage < 0 || input.CompletionPercentage > 100 {
		return nil, domain.ErrInvalidCompletionPercentage
	}
	if input.Score > 100 {
		return nil, domain.ErrInvalidScore
	}

	now := time.Now().UTC()
	var result *CompletionResult
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		session, err := s.sessionStore.WithTx(tx).UpdateStatusCAS(ctx, sessionID,
			domain.SessionStatusInProgress, domain.SessionStatusCompleted,
			func(session *domain.Session) {
				session.CompletedAt = now
				session.CompletionPercentage = input.CompletionPercentage
				session.ActualPomodoros = input.ActualPomodoros
				session.Mood = input.Mood
				session.Score = input.Score
				session.ActualDuration = input.ActualDuration
				if session.ActualDuration <= 0 && !session.ActualStartAt.IsZero() {
					session.ActualDuration = int(now.Sub(session.ActualStartAt).Minutes())
				}
				session.PointsEarned = domain.CalculatePoints(
					input.CompletionPercentage,
					session.PauseCount,
					session.ActualDuration,
					session.Duration,
					input.Mood,
				)
			})
		if err != nil {
			return err
		}

		adaptation, inserted, err := s.reactToScore(ctx, tx, session)
		if err != nil {
			return err
		}

		if err := s.applyCompletionEffects(ctx, tx, userID, session, inserted, adaptation); err != nil {
			return err
		}
		result = &CompletionResult{Session: session, Adaptation: adaptation}
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(ctx, err, sessionID, "complete")
	}

	s.emitLifecycleEvent(ctx, events.TypeSessionCompleted, userID, result.Session)

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("points_earned", result.Session.PointsEarned),
		slog.Bool("adaptation_triggered", result.Adaptation != nil && result.Adaptation.Triggered))
	return result, nil
}

// Skip moves any non-terminal session to skipped, recording the reason.
func (s *SessionService) Skip(ctx context.Context, userID, sessionID uuid.UUID, reason string) (*domain.Session, error) {
	current, err := s.ownedStudySession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: session is %s", ErrSessionTerminal, current.Status)
	}

	var session *domain.Session
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		skipped, err := s.sessionStore.WithTx(tx).UpdateStatusCAS(ctx, sessionID,
			current.Status, domain.SessionStatusSkipped,
			func(session *domain.Session) {
				session.SkipReason = reason
			})
		if err != nil {
			return err
		}
		session = skipped

		schedule, err := s.scheduleStore.WithTx(tx).GetByID(ctx, session.ScheduleID)
		if err != nil {
			return err
		}
		schedule.SkippedSessions++
		schedule.RecalculateCompletionRate()
		return s.scheduleStore.WithTx(tx).Update(ctx, schedule)
	})
	if err != nil {
		return nil, s.mapTransitionError(ctx, err, sessionID, "skip")
	}

	s.emitLifecycleEvent(ctx, events.TypeSessionSkipped, userID, session)
	return session, nil
}

// Get returns one of the user's sessions.
func (s *SessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	session, schedule, err := s.loadWithSchedule(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != userID {
		return nil, ErrNotOwned
	}
	return session, nil
}

// Today returns the current day's sessions from the user's active schedule,
// skipped ones excluded, ordered by start time.
func (s *SessionService) Today(ctx context.Context, userID uuid.UUID) ([]*domain.Session, error) {
	schedule, err := s.scheduleStore.GetActiveForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrScheduleNotFound) {
			return nil, ErrNoActiveSchedule
		}
		return nil, fmt.Errorf("failed to load active schedule: %w", err)
	}

	sessions, err := s.sessionStore.ListByScheduleAndDate(ctx, schedule.ID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load today's sessions: %w", err)
	}

	today := sessions[:0]
	for _, session := range sessions {
		if session.Status != domain.SessionStatusSkipped {
			today = append(today, session)
		}
	}
	return today, nil
}

// reactToScore runs adaptation for completed topic tests that carry a
// score. Other session types yield no adaptation. Inserted sessions are
// clamped to the owning schedule's end date.
func (s *SessionService) reactToScore(
	ctx context.Context,
	tx *sql.Tx,
	session *domain.Session,
) (*scheduling.AdaptationResult, []*domain.Session, error) {
	if session.Type != domain.SessionTypeTopicTest || session.Score < 0 {
		return nil, nil, nil
	}

	schedule, err := s.scheduleStore.WithTx(tx).GetByID(ctx, session.ScheduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	settings, err := s.settingsForUser(ctx, schedule.UserID)
	if err != nil {
		return nil, nil, err
	}

	adaptation, inserted, err := s.adapter.React(session, session.Score, settings, schedule.EndDate)
	if err != nil {
		return nil, nil, fmt.Errorf("adaptation failed: %w", err)
	}
	return adaptation, inserted, nil
}

// applyCompletionEffects updates the schedule counters, subject signals and
// content progress, and installs any adaptation-inserted sessions.
func (s *SessionService) applyCompletionEffects(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	session *domain.Session,
	inserted []*domain.Session,
	adaptation *scheduling.AdaptationResult,
) error {
	now := time.Now().UTC()

	schedule, err := s.scheduleStore.WithTx(tx).GetByID(ctx, session.ScheduleID)
	if err != nil {
		return err
	}
	schedule.CompletedSessions++

	if session.SubjectID != uuid.Nil {
		err := s.subjectStore.WithTx(tx).RecordStudy(ctx, userID, session.SubjectID, now, session.Score)
		if err != nil && !errors.Is(err, store.ErrSubjectNotFound) {
			return err
		}
	}

	if session.Content.Kind == domain.ContentKindNode {
		if err := s.advanceProgress(ctx, tx, userID, session, now); err != nil {
			return err
		}
	}

	if adaptation != nil && adaptation.Triggered {
		if err := s.sessionStore.WithTx(tx).CreateBatch(ctx, inserted); err != nil {
			return err
		}

		record, err := domain.NewAdaptationRecord(
			session.ScheduleID,
			string(adaptation.Type),
			adaptationChanges(inserted),
		)
		if err != nil {
			return err
		}
		if err := s.scheduleStore.WithTx(tx).CreateAdaptationRecord(ctx, record); err != nil {
			return err
		}

		schedule.AdaptationCount++
		schedule.TotalSessions += len(inserted)
	}

	schedule.RecalculateCompletionRate()
	return s.scheduleStore.WithTx(tx).Update(ctx, schedule)
}

// advanceProgress applies the spaced-repetition update for the session's
// content node, creating the progress row on first contact.
func (s *SessionService) advanceProgress(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	session *domain.Session,
	now time.Time,
) error {
	progressStore := s.progressStore.WithTx(tx)

	progress, err := progressStore.Get(ctx, userID, session.Content.NodeID)
	if err != nil {
		if !errors.Is(err, store.ErrProgressNotFound) {
			return err
		}
		progress, err = domain.NewContentProgress(userID, session.Content.NodeID)
		if err != nil {
			return err
		}
	}

	updated, err := s.spacedRep.RecordStudy(progress, session.Type, session.ActualDuration, now)
	if err != nil {
		return err
	}

	if session.Type == domain.SessionTypeTopicTest && session.Score >= 0 {
		updated, err = s.spacedRep.RecordMastery(updated, session.Score, now)
		if err != nil {
			return err
		}
	}

	return progressStore.Upsert(ctx, updated)
}

// ownedStudySession loads a session, verifies ownership through its
// schedule and rejects break sessions, which have no lifecycle.
func (s *SessionService) ownedStudySession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Session, error) {
	session, schedule, err := s.loadWithSchedule(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != userID {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Warn("session access denied",
			slog.String("session_id", sessionID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}
	if session.Type == domain.SessionTypeBreak {
		return nil, ErrBreakSession
	}
	return session, nil
}

func (s *SessionService) loadWithSchedule(ctx context.Context, sessionID uuid.UUID) (*domain.Session, *domain.Schedule, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	schedule, err := s.scheduleStore.GetByID(ctx, session.ScheduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load session schedule: %w", err)
	}
	return session, schedule, nil
}

// settingsForUser loads the user's settings for adaptation slot planning,
// falling back to defaults.
func (s *SessionService) settingsForUser(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSettingsNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// mapTransitionError keeps store sentinel errors intact for the API layer
// and wraps everything else with the attempted operation.
func (s *SessionService) mapTransitionError(ctx context.Context, err error, sessionID uuid.UUID, op string) error {
	if errors.Is(err, store.ErrStateConflict) || errors.Is(err, store.ErrSessionNotFound) {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Debug("session transition rejected",
			slog.String("session_id", sessionID.String()),
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return err
	}
	return fmt.Errorf("failed to %s session: %w", op, err)
}

// emitLifecycleEvent publishes a session lifecycle event. Emission failures
// are logged, not propagated; the state change already happened.
func (s *SessionService) emitLifecycleEvent(ctx context.Context, eventType string, userID uuid.UUID, session *domain.Session) {
	event, err := events.NewEvent(eventType, events.SessionCompletedPayload{
		SessionID:    session.ID,
		ScheduleID:   session.ScheduleID,
		UserID:       userID,
		SubjectID:    session.SubjectID,
		NodeID:       session.Content.NodeID,
		SessionType:  string(session.Type),
		Score:        session.Score,
		PointsEarned: session.PointsEarned,
		CompletedAt:  session.CompletedAt,
	})
	if err != nil {
		s.logger.Error("failed to build lifecycle event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit lifecycle event",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
	}
}

func adaptationChanges(inserted []*domain.Session) []string {
	changes := make([]string, 0, len(inserted))
	for _, session := range inserted {
		changes = append(changes, fmt.Sprintf("added %s on %s",
			session.Type, session.Date.Format(time.DateOnly)))
	}
	return changes
}
