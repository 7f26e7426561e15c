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
	"github.com/bacready/bacready-api/internal/domain/priority"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// SubjectService manages the user's subject selection, favorites and
// academic context, and exposes the priority ranking.
type SubjectService struct {
	tx            TxRunner
	subjectStore  store.SubjectStore
	settingsStore store.SettingsStore
	priority      priority.Service
	logger        *slog.Logger
}

// NewSubjectService creates a SubjectService with its dependencies.
func NewSubjectService(
	tx TxRunner,
	subjectStore store.SubjectStore,
	settingsStore store.SettingsStore,
	prioritySvc priority.Service,
	log *slog.Logger,
) *SubjectService {
	if tx == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tx runner cannot be nil")
	}
	if subjectStore == nil || settingsStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stores cannot be nil")
	}
	if prioritySvc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("priority service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &SubjectService{
		tx:            tx,
		subjectStore:  subjectStore,
		settingsStore: settingsStore,
		priority:      prioritySvc,
		logger:        log.With(slog.String("component", "subject_service")),
	}
}

// ListPriorities returns all of the user's subjects scored and ordered by
// priority, and persists the recalculated scores.
func (s *SubjectService) ListPriorities(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	subjects, err := s.subjectStore.ListPriorities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	settings, err := s.resolveSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	ranked := s.priority.Rank(subjects, settings.Weights, time.Now().UTC())

	scores := make(map[uuid.UUID]float64, len(ranked))
	for _, subject := range ranked {
		scores[subject.SubjectID] = subject.PriorityScore
	}
	if err := s.subjectStore.UpdatePriorityScores(ctx, userID, scores); err != nil {
		return nil, fmt.Errorf("failed to persist priority scores: %w", err)
	}

	return ranked, nil
}

// ListSelected returns the user's selected subjects in catalog order.
func (s *SubjectService) ListSelected(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	subjects, err := s.subjectStore.ListSelected(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list selected subjects: %w", err)
	}
	return subjects, nil
}

// SetSelection replaces the user's selected subject set.
func (s *SubjectService) SetSelection(ctx context.Context, userID uuid.UUID, subjectIDs []uuid.UUID) error {
	if len(subjectIDs) == 0 {
		return domain.NewValidationError("subject_ids", "at least one subject must be selected", domain.ErrValidation)
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.subjectStore.WithTx(tx).SetSelection(ctx, userID, subjectIDs)
	})
	if err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return err
		}
		return fmt.Errorf("failed to update subject selection: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("subject selection updated",
		slog.String("user_id", userID.String()),
		slog.Int("selected_count", len(subjectIDs)))
	return nil
}

// SetFavorite flags or unflags one subject as a favorite. Favorites get a
// small priority boost the next time scores are recalculated.
func (s *SubjectService) SetFavorite(ctx context.Context, userID, subjectID uuid.UUID, favorite bool) error {
	if err := s.subjectStore.SetFavorite(ctx, userID, subjectID, favorite); err != nil {
		if errors.Is(err, store.ErrSubjectNotFound) {
			return err
		}
		return fmt.Errorf("failed to update favorite flag: %w", err)
	}
	return nil
}

// GetAcademicContext retrieves the user's academic context.
func (s *SubjectService) GetAcademicContext(ctx context.Context, userID uuid.UUID) (*domain.AcademicContext, error) {
	academic, err := s.subjectStore.GetAcademicContext(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrAcademicContextNotFound) {
			return nil, ErrNoAcademicContext
		}
		return nil, fmt.Errorf("failed to load academic context: %w", err)
	}
	return academic, nil
}

// SetAcademicContext records the user's phase, year and stream, attaching
// the stream's subjects to the user in the same transaction.
func (s *SubjectService) SetAcademicContext(
	ctx context.Context,
	userID uuid.UUID,
	phase string,
	year int,
	streamID uuid.UUID,
) (*domain.AcademicContext, error) {
	if phase == "" {
		return nil, domain.NewValidationError("phase", "cannot be empty", domain.ErrValidation)
	}
	if year <= 0 {
		return nil, domain.NewValidationError("year", "must be positive", domain.ErrValidation)
	}
	if streamID == uuid.Nil {
		return nil, domain.NewValidationError("stream_id", "cannot be empty", domain.ErrValidation)
	}

	now := time.Now().UTC()
	academic := &domain.AcademicContext{
		UserID:    userID,
		Phase:     phase,
		Year:      year,
		StreamID:  streamID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.subjectStore.WithTx(tx).UpsertAcademicContext(ctx, academic)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save academic context: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("academic context saved",
		slog.String("user_id", userID.String()),
		slog.String("stream_id", streamID.String()))

	return s.subjectStore.GetAcademicContext(ctx, userID)
}

func (s *SubjectService) resolveSettings(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSettingsNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}
