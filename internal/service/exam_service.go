package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/events"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// ExamService records real exam outcomes. An exam result feeds the same
// subject performance signals completed sessions do, and a failing result
// flags the schedule for adaptation.
type ExamService struct {
	tx           TxRunner
	examStore    store.ExamStore
	subjectStore store.SubjectStore
	emitter      events.EventEmitter
	logger       *slog.Logger
}

// NewExamService creates an ExamService with its dependencies.
func NewExamService(
	tx TxRunner,
	examStore store.ExamStore,
	subjectStore store.SubjectStore,
	emitter events.EventEmitter,
	log *slog.Logger,
) *ExamService {
	if tx == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tx runner cannot be nil")
	}
	if examStore == nil || subjectStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stores cannot be nil")
	}
	if emitter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ExamService{
		tx:           tx,
		examStore:    examStore,
		subjectStore: subjectStore,
		emitter:      emitter,
		logger:       log.With(slog.String("component", "exam_service")),
	}
}

// Record derives the percentage, grade and adaptation flag from the raw
// score, saves the result and updates the subject's performance signal in
// one transaction.
func (s *ExamService) Record(
	ctx context.Context,
	userID, examID, subjectID uuid.UUID,
	score, maxScore float64,
) (*domain.ExamResult, error) {
	result, err := domain.NewExamResult(userID, examID, subjectID, score, maxScore)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.examStore.WithTx(tx).Create(ctx, result); err != nil {
			return err
		}

		err := s.subjectStore.WithTx(tx).RecordStudy(ctx, userID, subjectID, result.RecordedAt, result.Percentage)
		if err != nil && !errors.Is(err, store.ErrSubjectNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record exam result: %w", err)
	}

	s.emitRecorded(ctx, result)

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("exam result recorded",
		slog.String("user_id", userID.String()),
		slog.String("subject_id", subjectID.String()),
		slog.Float64("percentage", result.Percentage),
		slog.String("grade", result.Grade),
		slog.Bool("triggered_adaptation", result.TriggeredAdaptation))
	return result, nil
}

// List returns the user's exam results, newest first, up to limit.
func (s *ExamService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ExamResult, error) {
	results, err := s.examStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam results: %w", err)
	}
	return results, nil
}

// ListForSubject returns the user's exam results for one subject, newest
// first.
func (s *ExamService) ListForSubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ExamResult, error) {
	results, err := s.examStore.ListForSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam results: %w", err)
	}
	return results, nil
}

func (s *ExamService) emitRecorded(ctx context.Context, result *domain.ExamResult) {
	event, err := events.NewEvent(events.TypeExamRecorded, events.ExamRecordedPayload{
		ExamResultID:        result.ID,
		UserID:              result.UserID,
		SubjectID:           result.SubjectID,
		Percentage:          result.Percentage,
		Grade:               result.Grade,
		TriggeredAdaptation: result.TriggeredAdaptation,
	})
	if err != nil {
		s.logger.Error("failed to build exam event", slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit exam event", slog.String("error", err.Error()))
	}
}
