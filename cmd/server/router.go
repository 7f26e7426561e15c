package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bacready/bacready-api/internal/api"
	apiMiddleware "github.com/bacready/bacready-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	// Create API handlers using the application's services
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenService)

	scheduleHandler := api.NewScheduleHandler(app.scheduleService, app.logger)
	sessionHandler := api.NewSessionHandler(app.sessionService, app.logger)
	subjectHandler := api.NewSubjectHandler(app.subjectService, app.logger)
	settingsHandler := api.NewSettingsHandler(app.settingsService, app.logger)
	examHandler := api.NewExamHandler(app.examService, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.logger)

	// Register routes; everything under /api requires a valid bearer token.
	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Schedule endpoints
		r.Post("/schedules/generate", scheduleHandler.Generate)
		r.Get("/schedules/active", scheduleHandler.GetActive)
		r.Get("/schedules", scheduleHandler.List)
		r.Get("/schedules/{id}", scheduleHandler.GetByID)
		r.Get("/schedules/{id}/days/{date}", scheduleHandler.GetDay)
		r.Get("/schedules/{id}/adaptations", scheduleHandler.ListAdaptations)
		r.Post("/schedules/{id}/adapt", scheduleHandler.Adapt)

		// Session lifecycle endpoints
		r.Get("/sessions/today", sessionHandler.Today)
		r.Get("/sessions/{id}", sessionHandler.Get)
		r.Post("/sessions/{id}/start", sessionHandler.Start)
		r.Post("/sessions/{id}/pause", sessionHandler.Pause)
		r.Post("/sessions/{id}/resume", sessionHandler.Resume)
		r.Post("/sessions/{id}/complete", sessionHandler.Complete)
		r.Post("/sessions/{id}/skip", sessionHandler.Skip)

		// Subject endpoints
		r.Get("/subjects/priorities", subjectHandler.ListPriorities)
		r.Get("/subjects/selected", subjectHandler.ListSelected)
		r.Put("/subjects/selection", subjectHandler.SetSelection)
		r.Put("/subjects/{id}/favorite", subjectHandler.SetFavorite)
		r.Get("/subjects/{id}/exams", examHandler.ListForSubject)
		r.Get("/subjects/{id}/progress", reviewHandler.SubjectProgress)

		// Academic context endpoints
		r.Get("/academic-context", subjectHandler.GetAcademicContext)
		r.Put("/academic-context", subjectHandler.SetAcademicContext)

		// Settings endpoints
		r.Get("/settings", settingsHandler.Get)
		r.Put("/settings", settingsHandler.Update)

		// Exam result endpoints
		r.Post("/exams", examHandler.Record)
		r.Get("/exams", examHandler.List)

		// Spaced review endpoints
		r.Get("/reviews/due", reviewHandler.DueReviews)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
