// Package maintenance runs the daily background sweep: it refreshes
// priority scores for every user with an active schedule and skips
// sessions whose day passed without the session being started, so
// completion rates reflect reality rather than optimism.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bacready/bacready-api/internal/service"
	"github.com/bacready/bacready-api/internal/store"
)

// Sweeper performs one maintenance pass over all users with an active
// schedule. Per-user failures are logged and the sweep continues; a
// single broken account must not stall everyone else's refresh.
type Sweeper struct {
	tx            service.TxRunner
	scheduleStore store.ScheduleStore
	sessionStore  store.SessionStore
	subjects      *service.SubjectService
	logger        *slog.Logger
}

// NewSweeper creates a Sweeper with its dependencies.
func NewSweeper(
	tx service.TxRunner,
	scheduleStore store.ScheduleStore,
	sessionStore store.SessionStore,
	subjects *service.SubjectService,
	log *slog.Logger,
) *Sweeper {
	if tx == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("tx runner cannot be nil")
	}
	if scheduleStore == nil || sessionStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("stores cannot be nil")
	}
	if subjects == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("subject service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Sweeper{
		tx:            tx,
		scheduleStore: scheduleStore,
		sessionStore:  sessionStore,
		subjects:      subjects,
		logger:        log.With(slog.String("component", "maintenance_sweeper")),
	}
}

// Run executes one sweep. It returns an error only when the set of users
// to sweep cannot be determined; per-user failures are logged and counted.
func (s *Sweeper) Run(ctx context.Context) error {
	started := time.Now()

	userIDs, err := s.scheduleStore.ListActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for maintenance sweep: %w", err)
	}

	failures := 0
	expiredTotal := 0
	for _, userID := range userIDs {
		expired, err := s.sweepUser(ctx, userID)
		if err != nil {
			failures++
			s.logger.Error("maintenance sweep failed for user",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
			continue
		}
		expiredTotal += expired
	}

	s.logger.Info("maintenance sweep finished",
		slog.Int("users", len(userIDs)),
		slog.Int("failures", failures),
		slog.Int("sessions_expired", expiredTotal),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

// sweepUser refreshes one user's priority scores and expires their
// overdue sessions, returning how many sessions were expired.
func (s *Sweeper) sweepUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if _, err := s.subjects.ListPriorities(ctx, userID); err != nil {
		return 0, fmt.Errorf("failed to refresh priority scores: %w", err)
	}

	schedule, err := s.scheduleStore.GetActiveForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load active schedule: %w", err)
	}

	today := time.Now().UTC()
	expired := 0
	err = s.tx.RunInTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		n, err := s.sessionStore.WithTx(tx).ExpireScheduledBefore(ctx, schedule.ID, today)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		expired = n

		schedule.SkippedSessions += n
		schedule.RecalculateCompletionRate()
		return s.scheduleStore.WithTx(tx).Update(ctx, schedule)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire overdue sessions: %w", err)
	}
	return expired, nil
}
