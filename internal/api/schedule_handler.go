package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// ScheduleHandler handles schedule-related HTTP requests.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	logger          *slog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	if scheduleService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("schedule service cannot be nil for ScheduleHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ScheduleHandler")
	}

	return &ScheduleHandler{
		scheduleService: scheduleService,
		logger:          logger.With(slog.String("component", "schedule_handler")),
	}
}

// Generate handles POST /schedules/generate requests.
// It builds a new schedule for the requested date range and installs it as
// the user's active schedule, archiving the previous one.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req GenerateScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid start date")
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid end date")
		return
	}

	generated, err := h.scheduleService.Generate(r.Context(), userID, startDate, endDate, req.SubjectIDs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("schedule generated via API",
		slog.String("user_id", userID.String()),
		slog.String("schedule_id", generated.Schedule.ID.String()),
		slog.Int("sessions", len(generated.Sessions)))
	shared.RespondWithJSON(w, r, http.StatusCreated, generated)
}

// GetActive handles GET /schedules/active requests.
func (h *ScheduleHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	active, err := h.scheduleService.GetActive(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, active)
}

// GetByID handles GET /schedules/{id} requests.
func (h *ScheduleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, scheduleID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.GetByID(r.Context(), userID, scheduleID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedule)
}

// GetDay handles GET /schedules/{id}/days/{date} requests. The date is a
// "YYYY-MM-DD" path segment.
func (h *ScheduleHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, scheduleID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	date, err := parseDate(pathParam(r, "date"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date")
		return
	}

	sessions, err := h.scheduleService.GetDay(r.Context(), userID, scheduleID, date)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessions)
}

// List handles GET /schedules requests. Accepts an optional limit query
// parameter.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	schedules, err := h.scheduleService.ListForUser(r.Context(), userID, queryLimit(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schedules)
}

// Adapt handles POST /schedules/{id}/adapt requests, appending a manual
// entry to the schedule's adaptation audit trail.
func (h *ScheduleHandler) Adapt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, scheduleID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req AdaptScheduleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	record, err := h.scheduleService.Adapt(r.Context(), userID, scheduleID, req.Reason, req.Changes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, record)
}

// ListAdaptations handles GET /schedules/{id}/adaptations requests.
func (h *ScheduleHandler) ListAdaptations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, scheduleID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	records, err := h.scheduleService.ListAdaptations(r.Context(), userID, scheduleID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, records)
}

// queryLimit parses the optional limit query parameter. Missing or invalid
// values mean no limit.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
