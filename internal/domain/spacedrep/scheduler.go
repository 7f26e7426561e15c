// Package spacedrep computes spaced-repetition review dates for curriculum
// content using a fixed interval ladder.
package spacedrep

import (
	"errors"
	"time"

	"github.com/bacready/bacready-api/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("content progress cannot be nil")
)

// intervalLadder is the fixed review interval ladder in days, indexed by
// min(study_count - 1, len-1). It clamps at 90 days, never extrapolating.
var intervalLadder = []int{1, 3, 7, 14, 30, 60, 90}

// IntervalForStudyCount returns the review interval in days after the n-th
// recorded study of a node. Study counts below one are treated as one.
func IntervalForStudyCount(studyCount int) int {
	if studyCount < 1 {
		studyCount = 1
	}
	index := studyCount - 1
	if index >= len(intervalLadder) {
		index = len(intervalLadder) - 1
	}
	return intervalLadder[index]
}

// NextReview returns the next review date for a node that has been studied
// studyCount times, counted from now.
func NextReview(studyCount int, now time.Time) time.Time {
	return now.AddDate(0, 0, IntervalForStudyCount(studyCount))
}

// Scheduler applies the interval ladder to content progress. It follows the
// immutable update pattern: RecordStudy returns a new progress value and
// never mutates its input.
type Scheduler struct{}

// NewScheduler creates a Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// RecordStudy returns a copy of the progress advanced by one study session:
// the study count increments, the studied phase (derived from the session
// type) completes, time spent accumulates, and the next review date moves
// up the interval ladder.
func (s *Scheduler) RecordStudy(
	progress *domain.ContentProgress,
	sessionType domain.SessionType,
	minutesSpent int,
	now time.Time,
) (*domain.ContentProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	updated := *progress
	updated.StudyCount++
	updated.LastStudiedAt = now
	updated.NextReviewAt = NextReview(updated.StudyCount, now)
	if minutesSpent > 0 {
		updated.TimeSpentMinutes += minutesSpent
	}

	if phase, ok := domain.PhaseForSessionType(sessionType); ok {
		switch phase {
		case domain.PhaseUnderstanding:
			updated.Understanding = true
		case domain.PhaseReview:
			updated.Review = true
		case domain.PhaseTheoryPractice:
			updated.TheoryPractice = true
		case domain.PhaseExercisePractice:
			updated.ExercisePractice = true
		}
	}

	updated.UpdatedAt = now
	return &updated, nil
}

// RecordMastery returns a copy of the progress with the mastery score set
// from a topic-test result. Scores are clamped to [0,100].
func (s *Scheduler) RecordMastery(
	progress *domain.ContentProgress,
	score float64,
	now time.Time,
) (*domain.ContentProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	updated := *progress
	updated.MasteryScore = score
	updated.UpdatedAt = now
	return &updated, nil
}
