package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/domain"
)

// SettingsStore defines the interface for user settings persistence.
// Settings are stored as one row per user.
type SettingsStore interface {
	// GetForUser retrieves the user's settings.
	// Returns ErrSettingsNotFound if the user has never saved any; callers
	// fall back to domain.DefaultSettings in that case.
	GetForUser(ctx context.Context, userID uuid.UUID) (*domain.Settings, error)

	// Upsert creates or replaces the user's settings row.
	Upsert(ctx context.Context, settings *domain.Settings) error

	// WithTx returns a SettingsStore bound to the given transaction.
	WithTx(tx *sql.Tx) SettingsStore
}
