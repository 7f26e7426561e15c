package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bacready/bacready-api/internal/catalog"
	"github.com/bacready/bacready-api/internal/config"
	"github.com/bacready/bacready-api/internal/domain/priority"
	"github.com/bacready/bacready-api/internal/domain/spacedrep"
	"github.com/bacready/bacready-api/internal/events"
	"github.com/bacready/bacready-api/internal/maintenance"
	"github.com/bacready/bacready-api/internal/platform/postgres"
	"github.com/bacready/bacready-api/internal/scheduling"
	"github.com/bacready/bacready-api/internal/service"
	"github.com/bacready/bacready-api/internal/service/auth"
	"github.com/bacready/bacready-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	scheduleStore store.ScheduleStore
	sessionStore  store.SessionStore
	subjectStore  store.SubjectStore
	settingsStore store.SettingsStore
	progressStore store.ProgressStore
	examStore     store.ExamStore
	catalogStore  catalog.Service

	// Service interfaces
	tokenService    auth.TokenService
	scheduleService *service.ScheduleService
	sessionService  *service.SessionService
	subjectService  *service.SubjectService
	settingsService *service.SettingsService
	examService     *service.ExamService
	reviewService   *service.ReviewService

	// Event system
	eventEmitter events.EventEmitter

	// Background maintenance
	maintenanceRunner *maintenance.Runner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(_ context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.tokenService, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token verification service initialized",
		"token_lifetime_hours", cfg.Auth.TokenLifetimeHours)

	// Stores
	app.scheduleStore = postgres.NewPostgresScheduleStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.subjectStore = postgres.NewPostgresSubjectStore(db, logger)
	app.settingsStore = postgres.NewPostgresSettingsStore(db, logger)
	app.progressStore = postgres.NewPostgresProgressStore(db, logger)
	app.examStore = postgres.NewPostgresExamStore(db, logger)
	app.catalogStore = postgres.NewPostgresCatalogStore(db, logger)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLogHandler(logger))
	app.eventEmitter = emitter

	// Domain engines
	prioritySvc := priority.NewService()
	spacedRep := spacedrep.NewScheduler()
	generator := scheduling.NewGenerator(logger)
	adapter := scheduling.NewAdapter(logger)

	txRunner := service.NewTxRunner(db)

	// Services
	app.scheduleService = service.NewScheduleService(
		txRunner,
		app.scheduleStore,
		app.sessionStore,
		app.settingsStore,
		app.subjectStore,
		app.catalogStore,
		prioritySvc,
		generator,
		logger,
	)
	app.sessionService = service.NewSessionService(
		txRunner,
		app.sessionStore,
		app.scheduleStore,
		app.subjectStore,
		app.progressStore,
		app.settingsStore,
		spacedRep,
		adapter,
		app.eventEmitter,
		logger,
	)
	app.subjectService = service.NewSubjectService(
		txRunner,
		app.subjectStore,
		app.settingsStore,
		prioritySvc,
		logger,
	)
	app.settingsService = service.NewSettingsService(app.settingsStore, logger)
	app.examService = service.NewExamService(
		txRunner,
		app.examStore,
		app.subjectStore,
		app.eventEmitter,
		logger,
	)
	app.reviewService = service.NewReviewService(app.progressStore, logger)

	// Background maintenance sweep
	sweeper := maintenance.NewSweeper(
		txRunner,
		app.scheduleStore,
		app.sessionStore,
		app.subjectService,
		logger,
	)
	app.maintenanceRunner = maintenance.NewRunner(sweeper, cfg.Maintenance, logger)
	if err := app.maintenanceRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start maintenance runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.maintenanceRunner != nil {
		app.maintenanceRunner.Stop()
	}

	if app.db != nil {
		closeDatabase(app.db)
	}

	app.logger.Info("Application shutdown completed")
}
