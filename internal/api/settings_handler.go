package api

import (
	"log/slog"
	"net/http"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// SettingsHandler handles user settings HTTP requests.
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	if settingsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("settings service cannot be nil for SettingsHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SettingsHandler")
	}

	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger.With(slog.String("component", "settings_handler")),
	}
}

// Get handles GET /settings requests. Users without saved settings get the
// defaults.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	settings, err := h.settingsService.Get(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, settings)
}

// Update handles PUT /settings requests. The full settings document is
// replaced; the authenticated user always owns the result.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var settings domain.Settings
	if err := shared.DecodeJSON(r, &settings); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	updated, err := h.settingsService.Update(r.Context(), userID, &settings)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("settings updated via API", slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, updated)
}
