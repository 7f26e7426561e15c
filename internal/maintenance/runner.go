package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/bacready/bacready-api/internal/config"
)

// Runner schedules the daily maintenance sweep. It is a no-op when the
// sweep is disabled in configuration.
type Runner struct {
	scheduler *gocron.Scheduler
	sweeper   *Sweeper
	cfg       config.MaintenanceConfig
	logger    *slog.Logger
}

// NewRunner creates a Runner for the given sweeper and configuration.
func NewRunner(sweeper *Sweeper, cfg config.MaintenanceConfig, log *slog.Logger) *Runner {
	if sweeper == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("sweeper cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "maintenance_runner")),
	}
}

// Start registers the daily sweep job and starts the scheduler in the
// background. It returns immediately.
func (r *Runner) Start() error {
	if !r.cfg.Enabled {
		r.logger.Info("maintenance sweep disabled")
		return nil
	}

	at := fmt.Sprintf("%02d:00", r.cfg.Hour)
	_, err := r.scheduler.Every(1).Day().At(at).Do(func() {
		if err := r.sweeper.Run(context.Background()); err != nil {
			r.logger.Error("maintenance sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance sweep: %w", err)
	}

	r.scheduler.StartAsync()
	r.logger.Info("maintenance sweep scheduled", slog.String("at", at))
	return nil
}

// Stop stops the scheduler. Safe to call even if Start was never called
// or the sweep is disabled.
func (r *Runner) Stop() {
	r.scheduler.Stop()
}
