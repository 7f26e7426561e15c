package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// PostgresSubjectStore implements the store.SubjectStore interface
// using a PostgreSQL database as the storage backend. Priority inputs are
// a join of the subjects catalog, the user_subjects relation and the
// user's academic context (for the stream-specific coefficient).
type PostgresSubjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubjectStore creates a new PostgreSQL implementation of the
// SubjectStore interface. If logger is nil, the default logger is used.
func NewPostgresSubjectStore(db store.DBTX, logger *slog.Logger) *PostgresSubjectStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "subject_store")),
	}
}

// Ensure PostgresSubjectStore implements store.SubjectStore
var _ store.SubjectStore = (*PostgresSubjectStore)(nil)

// WithTx implements store.SubjectStore.WithTx
func (s *PostgresSubjectStore) WithTx(tx *sql.Tx) store.SubjectStore {
	return &PostgresSubjectStore{
		db:     tx,
		logger: s.logger,
	}
}

const priorityQuery = `
	SELECT sub.id, us.user_id, sub.name, sub.category, ss.coefficient,
		sub.difficulty, us.selected, us.favorite, us.last_score,
		us.last_studied_at, us.exam_at, sub.position, us.priority_score
	FROM user_subjects us
	JOIN subjects sub ON sub.id = us.subject_id
	JOIN stream_subjects ss ON ss.subject_id = us.subject_id
	JOIN academic_contexts ac ON ac.user_id = us.user_id
		AND ac.stream_id = ss.stream_id
	WHERE us.user_id = $1`

// ListPriorities implements store.SubjectStore.ListPriorities
func (s *PostgresSubjectStore) ListPriorities(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return s.queryPriorities(ctx, priorityQuery+` ORDER BY sub.position ASC`, userID)
}

// ListSelected implements store.SubjectStore.ListSelected
func (s *PostgresSubjectStore) ListSelected(ctx context.Context, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	return s.queryPriorities(ctx, priorityQuery+` AND us.selected ORDER BY sub.position ASC`, userID)
}

// SetSelection implements store.SubjectStore.SetSelection
// Runs two statements; wrap in a transaction via WithTx when atomicity
// matters to the caller.
func (s *PostgresSubjectStore) SetSelection(ctx context.Context, userID uuid.UUID, subjectIDs []uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_subjects SET selected = FALSE, updated_at = $1 WHERE user_id = $2`,
		now, userID,
	)
	if err != nil {
		log.Error("failed to clear subject selection",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	for _, subjectID := range subjectIDs {
		result, err := s.db.ExecContext(ctx,
			`UPDATE user_subjects SET selected = TRUE, updated_at = $1
			 WHERE user_id = $2 AND subject_id = $3`,
			now, userID, subjectID,
		)
		if err != nil {
			log.Error("failed to select subject",
				slog.String("error", err.Error()),
				slog.String("subject_id", subjectID.String()))
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrSubjectNotFound); err != nil {
			return fmt.Errorf("%w: %s", store.ErrSubjectNotFound, subjectID)
		}
	}

	log.Info("subject selection updated",
		slog.String("user_id", userID.String()),
		slog.Int("selected", len(subjectIDs)))
	return nil
}

// SetFavorite implements store.SubjectStore.SetFavorite
func (s *PostgresSubjectStore) SetFavorite(ctx context.Context, userID, subjectID uuid.UUID, favorite bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE user_subjects SET favorite = $1, updated_at = $2
		 WHERE user_id = $3 AND subject_id = $4`,
		favorite, time.Now().UTC(), userID, subjectID,
	)
	if err != nil {
		log.Error("failed to set favorite",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubjectNotFound)
}

// UpdatePriorityScores implements store.SubjectStore.UpdatePriorityScores
func (s *PostgresSubjectStore) UpdatePriorityScores(ctx context.Context, userID uuid.UUID, scores map[uuid.UUID]float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	for subjectID, score := range scores {
		_, err := s.db.ExecContext(ctx,
			`UPDATE user_subjects SET priority_score = $1, updated_at = $2
			 WHERE user_id = $3 AND subject_id = $4`,
			score, now, userID, subjectID,
		)
		if err != nil {
			log.Error("failed to update priority score",
				slog.String("error", err.Error()),
				slog.String("subject_id", subjectID.String()))
			return MapError(err)
		}
	}
	return nil
}

// RecordStudy implements store.SubjectStore.RecordStudy
func (s *PostgresSubjectStore) RecordStudy(ctx context.Context, userID, subjectID uuid.UUID, studiedAt time.Time, score float64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE user_subjects
		SET last_studied_at = $1,
			last_score = CASE WHEN $2 >= 0 THEN $2 ELSE last_score END,
			updated_at = $3
		WHERE user_id = $4 AND subject_id = $5
	`
	result, err := s.db.ExecContext(ctx, query, studiedAt, score, time.Now().UTC(), userID, subjectID)
	if err != nil {
		log.Error("failed to record study",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSubjectNotFound)
}

// GetAcademicContext implements store.SubjectStore.GetAcademicContext
func (s *PostgresSubjectStore) GetAcademicContext(ctx context.Context, userID uuid.UUID) (*domain.AcademicContext, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ac.user_id, ac.phase, ac.year, ac.stream_id, st.name,
			ac.created_at, ac.updated_at
		FROM academic_contexts ac
		JOIN streams st ON st.id = ac.stream_id
		WHERE ac.user_id = $1
	`

	var academic domain.AcademicContext
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&academic.UserID,
		&academic.Phase,
		&academic.Year,
		&academic.StreamID,
		&academic.StreamName,
		&academic.CreatedAt,
		&academic.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no academic context", slog.String("user_id", userID.String()))
			return nil, store.ErrAcademicContextNotFound
		}
		log.Error("failed to get academic context",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return &academic, nil
}

// UpsertAcademicContext implements store.SubjectStore.UpsertAcademicContext
// After saving the context it attaches every subject of the stream to the
// user, preserving existing relation rows.
func (s *PostgresSubjectStore) UpsertAcademicContext(ctx context.Context, academic *domain.AcademicContext) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := academic.Validate(); err != nil {
		log.Warn("academic context validation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", academic.UserID.String()))
		return err
	}

	academic.UpdatedAt = time.Now().UTC()
	if academic.CreatedAt.IsZero() {
		academic.CreatedAt = academic.UpdatedAt
	}

	query := `
		INSERT INTO academic_contexts (user_id, phase, year, stream_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			phase = EXCLUDED.phase,
			year = EXCLUDED.year,
			stream_id = EXCLUDED.stream_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		academic.UserID,
		academic.Phase,
		academic.Year,
		academic.StreamID,
		academic.CreatedAt,
		academic.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert academic context",
			slog.String("error", err.Error()),
			slog.String("user_id", academic.UserID.String()))
		return MapError(err)
	}

	attach := `
		INSERT INTO user_subjects (user_id, subject_id, selected, favorite,
			last_score, priority_score, created_at, updated_at)
		SELECT $1, ss.subject_id, TRUE, FALSE, -1, 0, $2, $2
		FROM stream_subjects ss
		WHERE ss.stream_id = $3
		ON CONFLICT (user_id, subject_id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, attach, academic.UserID, academic.UpdatedAt, academic.StreamID)
	if err != nil {
		log.Error("failed to attach stream subjects",
			slog.String("error", err.Error()),
			slog.String("stream_id", academic.StreamID.String()))
		return MapError(err)
	}

	log.Info("academic context saved",
		slog.String("user_id", academic.UserID.String()),
		slog.String("stream_id", academic.StreamID.String()))
	return nil
}

func (s *PostgresSubjectStore) queryPriorities(ctx context.Context, query string, userID uuid.UUID) ([]domain.SubjectPriority, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query subject priorities",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	priorities := []domain.SubjectPriority{}
	for rows.Next() {
		var p domain.SubjectPriority
		var category string
		var lastStudied, examAt sql.NullTime

		err := rows.Scan(
			&p.SubjectID,
			&p.UserID,
			&p.Name,
			&category,
			&p.Coefficient,
			&p.Difficulty,
			&p.Selected,
			&p.Favorite,
			&p.LastScore,
			&lastStudied,
			&examAt,
			&p.Order,
			&p.PriorityScore,
		)
		if err != nil {
			log.Error("failed to scan priority row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}

		p.Category = domain.SubjectCategory(category)
		if lastStudied.Valid {
			p.LastStudiedAt = lastStudied.Time
		}
		if examAt.Valid {
			p.ExamAt = examAt.Time
		}
		priorities = append(priorities, p)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return priorities, nil
}
