package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// PostgresExamStore implements the store.ExamStore interface
// using a PostgreSQL database as the storage backend.
type PostgresExamStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresExamStore creates a new PostgreSQL implementation of the
// ExamStore interface. If logger is nil, the default logger is used.
func NewPostgresExamStore(db store.DBTX, logger *slog.Logger) *PostgresExamStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresExamStore{
		db:     db,
		logger: logger.With(slog.String("component", "exam_store")),
	}
}

// Ensure PostgresExamStore implements store.ExamStore
var _ store.ExamStore = (*PostgresExamStore)(nil)

// WithTx implements store.ExamStore.WithTx
func (s *PostgresExamStore) WithTx(tx *sql.Tx) store.ExamStore {
	return &PostgresExamStore{
		db:     tx,
		logger: s.logger,
	}
}

const examColumns = `id, user_id, exam_id, subject_id, score, max_score,
	percentage, grade, triggered_adaptation, recorded_at`

// Create implements store.ExamStore.Create
func (s *PostgresExamStore) Create(ctx context.Context, result *domain.ExamResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO exam_results (` + examColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		result.ID,
		result.UserID,
		result.ExamID,
		nullableUUID(result.SubjectID),
		result.Score,
		result.MaxScore,
		result.Percentage,
		result.Grade,
		result.TriggeredAdaptation,
		result.RecordedAt,
	)
	if err != nil {
		log.Error("failed to create exam result",
			slog.String("error", err.Error()),
			slog.String("exam_id", result.ExamID.String()))
		return MapError(err)
	}

	log.Info("exam result recorded",
		slog.String("user_id", result.UserID.String()),
		slog.String("grade", result.Grade),
		slog.Bool("triggered_adaptation", result.TriggeredAdaptation))
	return nil
}

// ListForUser implements store.ExamStore.ListForUser
func (s *PostgresExamStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ExamResult, error) {
	query := `
		SELECT ` + examColumns + `
		FROM exam_results
		WHERE user_id = $1
		ORDER BY recorded_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return s.queryResults(ctx, query, args...)
}

// ListForSubject implements store.ExamStore.ListForSubject
func (s *PostgresExamStore) ListForSubject(ctx context.Context, userID, subjectID uuid.UUID) ([]*domain.ExamResult, error) {
	query := `
		SELECT ` + examColumns + `
		FROM exam_results
		WHERE user_id = $1 AND subject_id = $2
		ORDER BY recorded_at DESC
	`
	return s.queryResults(ctx, query, userID, subjectID)
}

func (s *PostgresExamStore) queryResults(ctx context.Context, query string, args ...any) ([]*domain.ExamResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query exam results", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	results := []*domain.ExamResult{}
	for rows.Next() {
		var result domain.ExamResult
		var subjectID uuid.NullUUID

		err := rows.Scan(
			&result.ID,
			&result.UserID,
			&result.ExamID,
			&subjectID,
			&result.Score,
			&result.MaxScore,
			&result.Percentage,
			&result.Grade,
			&result.TriggeredAdaptation,
			&result.RecordedAt,
		)
		if err != nil {
			log.Error("failed to scan exam result row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		result.SubjectID = subjectID.UUID
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return results, nil
}
