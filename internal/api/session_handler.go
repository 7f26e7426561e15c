package api

import (
	"log/slog"
	"net/http"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/domain"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// SessionHandler handles session lifecycle HTTP requests.
type SessionHandler struct {
	sessionService *service.SessionService
	logger         *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, logger *slog.Logger) *SessionHandler {
	if sessionService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("session service cannot be nil for SessionHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		sessionService: sessionService,
		logger:         logger.With(slog.String("component", "session_handler")),
	}
}

// Get handles GET /sessions/{id} requests.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Today handles GET /sessions/today requests: the active schedule's sessions
// for the current day, skipped ones excluded.
func (h *SessionHandler) Today(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	sessions, err := h.sessionService.Today(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessions)
}

// Start handles POST /sessions/{id}/start requests.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.sessionService.Start(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("session started",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Pause handles POST /sessions/{id}/pause requests.
func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.sessionService.Pause(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Resume handles POST /sessions/{id}/resume requests.
func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.sessionService.Resume(r.Context(), userID, sessionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Complete handles POST /sessions/{id}/complete requests. For topic tests
// the response carries the adaptation outcome alongside the session.
func (h *SessionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CompleteSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.sessionService.Complete(r.Context(), userID, sessionID, service.CompletionInput{
		CompletionPercentage: req.CompletionPercentage,
		ActualDuration:       req.ActualDuration,
		ActualPomodoros:      req.ActualPomodoros,
		Score:                req.ScoreOrUnset(),
		Mood:                 domain.Mood(req.Mood),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("points_earned", result.Session.PointsEarned))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Skip handles POST /sessions/{id}/skip requests.
func (h *SessionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, sessionID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SkipSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	session, err := h.sessionService.Skip(r.Context(), userID, sessionID, req.Reason)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}
