package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/store"
)

// ReviewService surfaces content whose spaced-repetition review date has
// arrived, so the client can offer reviews outside the generated schedule.
type ReviewService struct {
	progressStore store.ProgressStore
	logger        *slog.Logger
}

// NewReviewService creates a ReviewService with its dependencies.
func NewReviewService(progressStore store.ProgressStore, log *slog.Logger) *ReviewService {
	if progressStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("progress store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewService{
		progressStore: progressStore,
		logger:        log.With(slog.String("component", "review_service")),
	}
}

// DueReviews returns the user's content progress rows whose next review
// date is now or earlier, oldest due first, up to limit.
func (s *ReviewService) DueReviews(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ContentProgress, error) {
	due, err := s.progressStore.ListDueForReview(ctx, userID, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reviews: %w", err)
	}
	return due, nil
}

// SubjectProgress returns all progress rows for the user's content under
// one subject.
func (s *ReviewService) SubjectProgress(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ContentProgress, error) {
	progress, err := s.progressStore.ListForSubject(ctx, userID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subject progress: %w", err)
	}
	return progress, nil
}
