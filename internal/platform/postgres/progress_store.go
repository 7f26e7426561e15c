package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. If logger is nil, the default logger is used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

const progressColumns = `user_id, node_id, understanding, review,
	theory_practice, exercise_practice, mastery_score, time_spent_minutes,
	study_count, next_review_at, last_studied_at, created_at, updated_at`

// Get implements store.ProgressStore.Get
func (s *PostgresProgressStore) Get(ctx context.Context, userID, nodeID uuid.UUID) (*domain.ContentProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + progressColumns + `
		FROM content_progress
		WHERE user_id = $1 AND node_id = $2
	`

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, nodeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get content progress",
			slog.String("error", err.Error()),
			slog.String("node_id", nodeID.String()))
		return nil, MapError(err)
	}
	return progress, nil
}

// Upsert implements store.ProgressStore.Upsert
func (s *PostgresProgressStore) Upsert(ctx context.Context, progress *domain.ContentProgress) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("node_id", progress.NodeID.String()))
		return err
	}

	progress.UpdatedAt = time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = progress.UpdatedAt
	}

	query := `
		INSERT INTO content_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, node_id) DO UPDATE SET
			understanding = EXCLUDED.understanding,
			review = EXCLUDED.review,
			theory_practice = EXCLUDED.theory_practice,
			exercise_practice = EXCLUDED.exercise_practice,
			mastery_score = EXCLUDED.mastery_score,
			time_spent_minutes = EXCLUDED.time_spent_minutes,
			study_count = EXCLUDED.study_count,
			next_review_at = EXCLUDED.next_review_at,
			last_studied_at = EXCLUDED.last_studied_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		progress.UserID,
		progress.NodeID,
		progress.Understanding,
		progress.Review,
		progress.TheoryPractice,
		progress.ExercisePractice,
		progress.MasteryScore,
		progress.TimeSpentMinutes,
		progress.StudyCount,
		nullableTime(progress.NextReviewAt),
		nullableTime(progress.LastStudiedAt),
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert content progress",
			slog.String("error", err.Error()),
			slog.String("node_id", progress.NodeID.String()))
		return MapError(err)
	}
	return nil
}

// ListForSubject implements store.ProgressStore.ListForSubject
func (s *PostgresProgressStore) ListForSubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ContentProgress, error) {
	query := `
		SELECT ` + qualifiedProgressColumns + `
		FROM content_progress cp
		JOIN curriculum_nodes cn ON cn.id = cp.node_id
		WHERE cp.user_id = $1 AND cn.subject_id = $2
		ORDER BY cn.position ASC
	`
	return s.queryProgress(ctx, query, userID, subjectID)
}

// ListDueForReview implements store.ProgressStore.ListDueForReview
func (s *PostgresProgressStore) ListDueForReview(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]*domain.ContentProgress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM content_progress
		WHERE user_id = $1
			AND next_review_at IS NOT NULL
			AND next_review_at <= $2
		ORDER BY next_review_at ASC
		LIMIT $3
	`
	if limit <= 0 {
		limit = 50
	}
	return s.queryProgress(ctx, query, userID, before, limit)
}

// qualifiedProgressColumns prefixes every progress column for joins.
const qualifiedProgressColumns = `cp.user_id, cp.node_id, cp.understanding,
	cp.review, cp.theory_practice, cp.exercise_practice, cp.mastery_score,
	cp.time_spent_minutes, cp.study_count, cp.next_review_at,
	cp.last_studied_at, cp.created_at, cp.updated_at`

func (s *PostgresProgressStore) queryProgress(ctx context.Context, query string, args ...any) ([]*domain.ContentProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query content progress", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	progresses := []*domain.ContentProgress{}
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		progresses = append(progresses, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return progresses, nil
}

func scanProgress(row rowScanner) (*domain.ContentProgress, error) {
	var progress domain.ContentProgress
	var nextReview, lastStudied sql.NullTime

	err := row.Scan(
		&progress.UserID,
		&progress.NodeID,
		&progress.Understanding,
		&progress.Review,
		&progress.TheoryPractice,
		&progress.ExercisePractice,
		&progress.MasteryScore,
		&progress.TimeSpentMinutes,
		&progress.StudyCount,
		&nextReview,
		&lastStudied,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if nextReview.Valid {
		progress.NextReviewAt = nextReview.Time
	}
	if lastStudied.Valid {
		progress.LastStudiedAt = lastStudied.Time
	}
	return &progress, nil
}
