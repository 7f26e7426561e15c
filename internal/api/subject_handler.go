package api

import (
	"log/slog"
	"net/http"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// SubjectHandler handles subject selection, priority and academic-context
// HTTP requests.
type SubjectHandler struct {
	subjectService *service.SubjectService
	logger         *slog.Logger
}

// NewSubjectHandler creates a new SubjectHandler.
func NewSubjectHandler(subjectService *service.SubjectService, logger *slog.Logger) *SubjectHandler {
	if subjectService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("subject service cannot be nil for SubjectHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SubjectHandler")
	}

	return &SubjectHandler{
		subjectService: subjectService,
		logger:         logger.With(slog.String("component", "subject_handler")),
	}
}

// ListPriorities handles GET /subjects/priorities requests. The scores are
// recalculated and persisted on each call.
func (h *SubjectHandler) ListPriorities(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	ranked, err := h.subjectService.ListPriorities(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ranked)
}

// ListSelected handles GET /subjects/selected requests.
func (h *SubjectHandler) ListSelected(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	selected, err := h.subjectService.ListSelected(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, selected)
}

// SetSelection handles PUT /subjects/selection requests.
func (h *SubjectHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req SetSelectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if err := h.subjectService.SetSelection(r.Context(), userID, req.SubjectIDs); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetFavorite handles PUT /subjects/{id}/favorite requests.
func (h *SubjectHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SetFavoriteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.subjectService.SetFavorite(r.Context(), userID, subjectID, req.Favorite); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAcademicContext handles GET /academic-context requests.
func (h *SubjectHandler) GetAcademicContext(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	academic, err := h.subjectService.GetAcademicContext(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, academic)
}

// SetAcademicContext handles PUT /academic-context requests. Setting the
// context attaches the stream's subjects to the user.
func (h *SubjectHandler) SetAcademicContext(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req AcademicContextRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	academic, err := h.subjectService.SetAcademicContext(r.Context(), userID, req.Phase, req.Year, req.StreamID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("academic context set via API",
		slog.String("user_id", userID.String()),
		slog.String("stream_id", req.StreamID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, academic)
}
