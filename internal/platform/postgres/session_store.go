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

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the
// SessionStore interface. If logger is nil, the default logger is used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{
		db:     tx,
		logger: s.logger,
	}
}

const sessionColumns = `id, schedule_id, subject_id, date, start_minute,
	end_minute, duration_minutes, type, status, content_kind, content_node_id,
	content_title, planned_pomodoros, actual_pomodoros, pause_count,
	actual_start_at, completed_at, actual_duration_minutes, score,
	completion_percentage, mood, points_earned, skip_reason,
	origin_topic_test_id, created_at, updated_at`

// CreateBatch implements store.SessionStore.CreateBatch
func (s *PostgresSessionStore) CreateBatch(ctx context.Context, sessions []*domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(sessions) == 0 {
		return nil
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`
	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		log.Error("failed to prepare session insert", slog.String("error", err.Error()))
		return MapError(err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close statement", slog.String("error", err.Error()))
		}
	}()

	for _, session := range sessions {
		if err := session.Validate(); err != nil {
			log.Warn("session validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()))
			return err
		}

		_, err := stmt.ExecContext(ctx,
			session.ID,
			session.ScheduleID,
			nullableUUID(session.SubjectID),
			session.Date,
			session.StartMinute,
			session.EndMinute,
			session.Duration,
			session.Type,
			session.Status,
			session.Content.Kind,
			nullableUUID(session.Content.NodeID),
			session.Content.Title,
			session.PlannedPomodoros,
			session.ActualPomodoros,
			session.PauseCount,
			nullableTime(session.ActualStartAt),
			nullableTime(session.CompletedAt),
			session.ActualDuration,
			session.Score,
			session.CompletionPercentage,
			session.Mood,
			session.PointsEarned,
			session.SkipReason,
			nullableUUID(session.OriginTopicTestID),
			session.CreatedAt,
			session.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to insert session",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()))
			return MapError(err)
		}
	}

	log.Info("sessions created",
		slog.String("schedule_id", sessions[0].ScheduleID.String()),
		slog.Int("count", len(sessions)))
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}
	return session, nil
}

// ListBySchedule implements store.SessionStore.ListBySchedule
func (s *PostgresSessionStore) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE schedule_id = $1
		ORDER BY date ASC, start_minute ASC
	`
	return s.querySessions(ctx, query, scheduleID)
}

// ListByScheduleAndDate implements store.SessionStore.ListByScheduleAndDate
func (s *PostgresSessionStore) ListByScheduleAndDate(
	ctx context.Context,
	scheduleID uuid.UUID,
	date time.Time,
) ([]*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE schedule_id = $1 AND date = $2
		ORDER BY start_minute ASC
	`
	return s.querySessions(ctx, query, scheduleID, domain.DateOnly(date))
}

// UpdateStatusCAS implements store.SessionStore.UpdateStatusCAS
// The UPDATE is guarded by the expected status; zero affected rows means
// some other request moved the session first.
func (s *PostgresSessionStore) UpdateStatusCAS(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.SessionStatus,
	mutate func(*domain.Session),
) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != from {
		log.Debug("session status mismatch before update",
			slog.String("session_id", id.String()),
			slog.String("expected", string(from)),
			slog.String("actual", string(session.Status)))
		return nil, fmt.Errorf("%w: session is %s, expected %s",
			store.ErrStateConflict, session.Status, from)
	}

	if mutate != nil {
		mutate(session)
	}
	session.Status = to
	session.UpdatedAt = time.Now().UTC()

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during status update",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, err
	}

	query := `
		UPDATE sessions
		SET status = $1, actual_pomodoros = $2, pause_count = $3,
			actual_start_at = $4, completed_at = $5,
			actual_duration_minutes = $6, score = $7,
			completion_percentage = $8, mood = $9, points_earned = $10,
			skip_reason = $11, updated_at = $12
		WHERE id = $13 AND status = $14
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		session.Status,
		session.ActualPomodoros,
		session.PauseCount,
		nullableTime(session.ActualStartAt),
		nullableTime(session.CompletedAt),
		session.ActualDuration,
		session.Score,
		session.CompletionPercentage,
		session.Mood,
		session.PointsEarned,
		session.SkipReason,
		session.UpdatedAt,
		id,
		from,
	)
	if err != nil {
		log.Error("failed to update session status",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		log.Debug("session status changed concurrently",
			slog.String("session_id", id.String()),
			slog.String("expected", string(from)))
		return nil, fmt.Errorf("%w: session no longer %s", store.ErrStateConflict, from)
	}

	log.Info("session status updated",
		slog.String("session_id", id.String()),
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	return session, nil
}

// ExpireScheduledBefore implements store.SessionStore.ExpireScheduledBefore
func (s *PostgresSessionStore) ExpireScheduledBefore(
	ctx context.Context,
	scheduleID uuid.UUID,
	before time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE sessions
		SET status = $1, skip_reason = $2, updated_at = $3
		WHERE schedule_id = $4 AND status = $5 AND date < $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.SessionStatusSkipped,
		domain.SkipReasonMissed,
		time.Now().UTC(),
		scheduleID,
		domain.SessionStatusScheduled,
		domain.DateOnly(before),
	)
	if err != nil {
		log.Error("failed to expire overdue sessions",
			slog.String("error", err.Error()),
			slog.String("schedule_id", scheduleID.String()))
		return 0, MapError(err)
	}

	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if expired > 0 {
		log.Info("expired overdue sessions",
			slog.String("schedule_id", scheduleID.String()),
			slog.Int64("count", expired))
	}
	return int(expired), nil
}

func (s *PostgresSessionStore) querySessions(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query sessions", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	sessions := []*domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			log.Error("failed to scan session row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return sessions, nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var subjectID, contentNodeID, originID uuid.NullUUID
	var sessionType, status, contentKind, mood string
	var actualStart, completed sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.ScheduleID,
		&subjectID,
		&session.Date,
		&session.StartMinute,
		&session.EndMinute,
		&session.Duration,
		&sessionType,
		&status,
		&contentKind,
		&contentNodeID,
		&session.Content.Title,
		&session.PlannedPomodoros,
		&session.ActualPomodoros,
		&session.PauseCount,
		&actualStart,
		&completed,
		&session.ActualDuration,
		&session.Score,
		&session.CompletionPercentage,
		&mood,
		&session.PointsEarned,
		&session.SkipReason,
		&originID,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	session.SubjectID = subjectID.UUID
	session.Type = domain.SessionType(sessionType)
	session.Status = domain.SessionStatus(status)
	session.Content.Kind = domain.ContentKind(contentKind)
	session.Content.NodeID = contentNodeID.UUID
	session.Mood = domain.Mood(mood)
	session.OriginTopicTestID = originID.UUID
	if actualStart.Valid {
		session.ActualStartAt = actualStart.Time
	}
	if completed.Valid {
		session.CompletedAt = completed.Time
	}
	return &session, nil
}

// nullableUUID maps uuid.Nil to SQL NULL.
func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// nullableTime maps the zero time to SQL NULL.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
