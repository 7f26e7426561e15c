package api

import (
	"log/slog"
	"net/http"

	"github.com/bacready/bacready-api/internal/api/shared"
	"github.com/bacready/bacready-api/internal/platform/logger"
	"github.com/bacready/bacready-api/internal/service"
)

// ReviewHandler handles spaced-review HTTP requests.
type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review service cannot be nil for ReviewHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// DueReviews handles GET /reviews/due requests, most overdue first.
func (h *ReviewHandler) DueReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	due, err := h.reviewService.DueReviews(r.Context(), userID, queryLimit(r))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, due)
}

// SubjectProgress handles GET /subjects/{id}/progress requests.
func (h *ReviewHandler) SubjectProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, subjectID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	progress, err := h.reviewService.SubjectProgress(r.Context(), userID, subjectID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}
