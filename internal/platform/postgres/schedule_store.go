package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// PostgresScheduleStore implements the store.ScheduleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresScheduleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresScheduleStore creates a new PostgreSQL implementation of the
// ScheduleStore interface. If logger is nil, the default logger is used.
func NewPostgresScheduleStore(db store.DBTX, logger *slog.Logger) *PostgresScheduleStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresScheduleStore{
		db:     db,
		logger: logger.With(slog.String("component", "schedule_store")),
	}
}

// Ensure PostgresScheduleStore implements store.ScheduleStore
var _ store.ScheduleStore = (*PostgresScheduleStore)(nil)

// WithTx implements store.ScheduleStore.WithTx
func (s *PostgresScheduleStore) WithTx(tx *sql.Tx) store.ScheduleStore {
	return &PostgresScheduleStore{
		db:     tx,
		logger: s.logger,
	}
}

const scheduleColumns = `id, user_id, start_date, end_date, status,
	total_sessions, completed_sessions, skipped_sessions, completion_rate,
	adaptation_count, created_at, updated_at`

// Create implements store.ScheduleStore.Create
// Returns store.ErrActiveScheduleExists when the partial unique index on
// active schedules rejects the insert.
func (s *PostgresScheduleStore) Create(ctx context.Context, schedule *domain.Schedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during create",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		schedule.ID,
		schedule.UserID,
		schedule.StartDate,
		schedule.EndDate,
		schedule.Status,
		schedule.TotalSessions,
		schedule.CompletedSessions,
		schedule.SkippedSessions,
		schedule.CompletionRate,
		schedule.AdaptationCount,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("user already has an active schedule",
				slog.String("user_id", schedule.UserID.String()))
			return fmt.Errorf("%w: %v", store.ErrActiveScheduleExists, err)
		}
		log.Error("failed to create schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return MapError(err)
	}

	log.Info("schedule created",
		slog.String("schedule_id", schedule.ID.String()),
		slog.String("user_id", schedule.UserID.String()),
		slog.Int("total_sessions", schedule.TotalSessions))
	return nil
}

// GetByID implements store.ScheduleStore.GetByID
func (s *PostgresScheduleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`

	schedule, err := scanSchedule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get schedule by ID",
			slog.String("error", err.Error()),
			slog.String("schedule_id", id.String()))
		return nil, MapError(err)
	}
	return schedule, nil
}

// GetActiveForUser implements store.ScheduleStore.GetActiveForUser
func (s *PostgresScheduleStore) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE user_id = $1 AND status = $2
	`

	schedule, err := scanSchedule(s.db.QueryRowContext(ctx, query, userID, domain.ScheduleStatusActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no active schedule",
				slog.String("user_id", userID.String()))
			return nil, store.ErrScheduleNotFound
		}
		log.Error("failed to get active schedule",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return schedule, nil
}

// ListForUser implements store.ScheduleStore.ListForUser
func (s *PostgresScheduleStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Schedule, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	schedules := []*domain.Schedule{}
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			log.Error("failed to scan schedule row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return schedules, nil
}

// Update implements store.ScheduleStore.Update
func (s *PostgresScheduleStore) Update(ctx context.Context, schedule *domain.Schedule) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := schedule.Validate(); err != nil {
		log.Warn("schedule validation failed during update",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return err
	}

	schedule.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE schedules
		SET status = $1, total_sessions = $2, completed_sessions = $3,
			skipped_sessions = $4, completion_rate = $5, adaptation_count = $6,
			updated_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		schedule.Status,
		schedule.TotalSessions,
		schedule.CompletedSessions,
		schedule.SkippedSessions,
		schedule.CompletionRate,
		schedule.AdaptationCount,
		schedule.UpdatedAt,
		schedule.ID,
	)
	if err != nil {
		log.Error("failed to update schedule",
			slog.String("error", err.Error()),
			slog.String("schedule_id", schedule.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrScheduleNotFound)
}

// ArchiveActiveForUser implements store.ScheduleStore.ArchiveActiveForUser
func (s *PostgresScheduleStore) ArchiveActiveForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE schedules
		SET status = $1, updated_at = $2
		WHERE user_id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.ScheduleStatusArchived,
		time.Now().UTC(),
		userID,
		domain.ScheduleStatusActive,
	)
	if err != nil {
		log.Error("failed to archive active schedules",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	archived, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if archived > 0 {
		log.Info("archived previous schedules",
			slog.String("user_id", userID.String()),
			slog.Int64("count", archived))
	}
	return int(archived), nil
}

// ListActiveUserIDs implements store.ScheduleStore.ListActiveUserIDs
func (s *PostgresScheduleStore) ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT user_id FROM schedules WHERE status = $1`

	rows, err := s.db.QueryContext(ctx, query, domain.ScheduleStatusActive)
	if err != nil {
		log.Error("failed to list active schedule users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	userIDs := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, MapError(err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return userIDs, nil
}

// CreateAdaptationRecord implements store.ScheduleStore.CreateAdaptationRecord
func (s *PostgresScheduleStore) CreateAdaptationRecord(ctx context.Context, record *domain.AdaptationRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	changes, err := json.Marshal(record.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal adaptation changes: %w", err)
	}

	query := `
		INSERT INTO adaptation_records (id, schedule_id, timestamp, reason, changes)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.ScheduleID,
		record.Timestamp,
		record.Reason,
		changes,
	)
	if err != nil {
		log.Error("failed to create adaptation record",
			slog.String("error", err.Error()),
			slog.String("schedule_id", record.ScheduleID.String()))
		return MapError(err)
	}
	return nil
}

// ListAdaptationRecords implements store.ScheduleStore.ListAdaptationRecords
func (s *PostgresScheduleStore) ListAdaptationRecords(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AdaptationRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, schedule_id, timestamp, reason, changes
		FROM adaptation_records
		WHERE schedule_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		log.Error("failed to list adaptation records",
			slog.String("error", err.Error()),
			slog.String("schedule_id", scheduleID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	records := []*domain.AdaptationRecord{}
	for rows.Next() {
		var record domain.AdaptationRecord
		var changes []byte
		if err := rows.Scan(&record.ID, &record.ScheduleID, &record.Timestamp, &record.Reason, &changes); err != nil {
			return nil, MapError(err)
		}
		if err := json.Unmarshal(changes, &record.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal adaptation changes: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var schedule domain.Schedule
	var status string
	err := row.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.StartDate,
		&schedule.EndDate,
		&status,
		&schedule.TotalSessions,
		&schedule.CompletedSessions,
		&schedule.SkippedSessions,
		&schedule.CompletionRate,
		&schedule.AdaptationCount,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	schedule.Status = domain.ScheduleStatus(status)
	return &schedule, nil
}

// closeRows closes rows and logs close failures, which matter because they
// can mask an earlier scan error.
func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
