package api

import (
	"log/slog"
	"net/http"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// ExamHandler handles exam result HTTP requests.
type ExamHandler struct {
	examService *service.ExamService
	logger      *slog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, logger *slog.Logger) *ExamHandler {
	if examService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("exam service cannot be nil for ExamHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ExamHandler")
	}

	return &ExamHandler{
		examService: examService,
		logger:      logger.With(slog.String("component", "exam_handler")),
	}
}

// Record handles POST /exams requests.
func (h *ExamHandler) Record(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req RecordExamRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.examService.Record(r.Context(), userID, req.ExamID, req.SubjectID, req.Score, req.MaxScore)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// List handles GET /exams requests, newest first.
func (h *ExamHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	results, err := h.examService.List(r.Context(), userID, queryLimit(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, results)
}

// ListForSubject handles GET /subjects/{id}/exams requests.
func (h *ExamHandler) ListForSubject(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	results, err := h.examService.ListForSubject(r.Context(), userID, subjectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, results)
}
