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

// PostgresSettingsStore implements the store.SettingsStore interface
// using a PostgreSQL database as the storage backend. The nested settings
// groups (energy, pomodoro, weights, prayer times, duration ladder) are
// stored as JSONB columns.
type PostgresSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSettingsStore creates a new PostgreSQL implementation of the
// SettingsStore interface. If logger is nil, the default logger is used.
func NewPostgresSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresSettingsStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "settings_store")),
	}
}

// Ensure PostgresSettingsStore implements store.SettingsStore
var _ store.SettingsStore = (*PostgresSettingsStore)(nil)

// WithTx implements store.SettingsStore.WithTx
func (s *PostgresSettingsStore) WithTx(tx *sql.Tx) store.SettingsStore {
	return &PostgresSettingsStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetForUser implements store.SettingsStore.GetForUser
func (s *PostgresSettingsStore) GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, study_days, study_start, study_end, sleep_start,
			sleep_end, exercise_enabled, exercise_start, exercise_end,
			energy, pomodoro, weights, duration_by_coefficient,
			prayer_times_enabled, prayer_duration_minutes, prayer_times,
			max_sessions_per_subject_per_day, max_hard_sessions_per_day,
			created_at, updated_at
		FROM user_settings
		WHERE user_id = $1
	`

	var settings domain.Settings
	var studyDays, energy, pomodoro, weights, durations, prayers []byte

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.UserID,
		&studyDays,
		&settings.StudyStart,
		&settings.StudyEnd,
		&settings.SleepStart,
		&settings.SleepEnd,
		&settings.ExerciseEnabled,
		&settings.ExerciseStart,
		&settings.ExerciseEnd,
		&energy,
		&pomodoro,
		&weights,
		&durations,
		&settings.PrayerTimesEnabled,
		&settings.PrayerDurationMinutes,
		&prayers,
		&settings.MaxSessionsPerSubjectPerDay,
		&settings.MaxHardSessionsPerDay,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no settings row", slog.String("user_id", userID.String()))
			return nil, store.ErrSettingsNotFound
		}
		log.Error("failed to get settings",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	for _, field := range []struct {
		raw  []byte
		dest any
	}{
		{studyDays, &settings.StudyDays},
		{energy, &settings.Energy},
		{pomodoro, &settings.Pomodoro},
		{weights, &settings.Weights},
		{durations, &settings.DurationByCoefficient},
		{prayers, &settings.PrayerTimes},
	} {
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings field: %w", err)
		}
	}

	return &settings, nil
}

// Upsert implements store.SettingsStore.Upsert
func (s *PostgresSettingsStore) Upsert(ctx context.Context, settings *domain.Settings) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := settings.Validate(); err != nil {
		log.Warn("settings validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID.String()))
		return err
	}

	settings.UpdatedAt = time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	marshalled := make([][]byte, 6)
	for i, value := range []any{
		settings.StudyDays,
		settings.Energy,
		settings.Pomodoro,
		settings.Weights,
		settings.DurationByCoefficient,
		settings.PrayerTimes,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal settings field: %w", err)
		}
		marshalled[i] = raw
	}

	query := `
		INSERT INTO user_settings (user_id, study_days, study_start,
			study_end, sleep_start, sleep_end, exercise_enabled,
			exercise_start, exercise_end, energy, pomodoro, weights,
			duration_by_coefficient, prayer_times_enabled,
			prayer_duration_minutes, prayer_times,
			max_sessions_per_subject_per_day, max_hard_sessions_per_day,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (user_id) DO UPDATE SET
			study_days = EXCLUDED.study_days,
			study_start = EXCLUDED.study_start,
			study_end = EXCLUDED.study_end,
			sleep_start = EXCLUDED.sleep_start,
			sleep_end = EXCLUDED.sleep_end,
			exercise_enabled = EXCLUDED.exercise_enabled,
			exercise_start = EXCLUDED.exercise_start,
			exercise_end = EXCLUDED.exercise_end,
			energy = EXCLUDED.energy,
			pomodoro = EXCLUDED.pomodoro,
			weights = EXCLUDED.weights,
			duration_by_coefficient = EXCLUDED.duration_by_coefficient,
			prayer_times_enabled = EXCLUDED.prayer_times_enabled,
			prayer_duration_minutes = EXCLUDED.prayer_duration_minutes,
			prayer_times = EXCLUDED.prayer_times,
			max_sessions_per_subject_per_day = EXCLUDED.max_sessions_per_subject_per_day,
			max_hard_sessions_per_day = EXCLUDED.max_hard_sessions_per_day,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		settings.UserID,
		marshalled[0],
		settings.StudyStart,
		settings.StudyEnd,
		settings.SleepStart,
		settings.SleepEnd,
		settings.ExerciseEnabled,
		settings.ExerciseStart,
		settings.ExerciseEnd,
		marshalled[1],
		marshalled[2],
		marshalled[3],
		marshalled[4],
		settings.PrayerTimesEnabled,
		settings.PrayerDurationMinutes,
		marshalled[5],
		settings.MaxSessionsPerSubjectPerDay,
		settings.MaxHardSessionsPerDay,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert settings",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID.String()))
		return MapError(err)
	}

	log.Info("settings saved", slog.String("user_id", settings.UserID.String()))
	return nil
}
