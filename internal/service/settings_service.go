package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/store"
)

// SettingsService reads and writes a user's study preferences. Users who
// never saved anything read the declared defaults.
type SettingsService struct {
	settingsStore store.SettingsStore
	logger        *slog.Logger
}

// NewSettingsService creates a SettingsService with its dependencies.
func NewSettingsService(settingsStore store.SettingsStore, log *slog.Logger) *SettingsService {
	if settingsStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("settings store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &SettingsService{
		settingsStore: settingsStore,
		logger:        log.With(slog.String("component", "settings_service")),
	}
}

// Get returns the user's settings, falling back to defaults when none are
// saved. The fallback is not persisted; saving stays an explicit act.
func (s *SettingsService) Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSettingsNotFound) {
			return domain.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Update validates and saves the user's settings as a whole document.
// Partial updates are the client's concern; it sends the full settings back.
func (s *SettingsService) Update(ctx context.Context, userID uuid.UUID, settings *domain.Settings) (*domain.Settings, error) {
	if settings == nil {
		return nil, domain.NewValidationError("settings", "cannot be nil", domain.ErrValidation)
	}

	settings.UserID = userID
	settings.UpdatedAt = time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = settings.UpdatedAt
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := s.settingsStore.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("settings updated", slog.String("user_id", userID.String()))
	return settings, nil
}
