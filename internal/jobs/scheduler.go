// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single run of any job
const jobTimeout = time.Minute

// IdempotencyCleaner purges idempotency keys past their expiry
type IdempotencyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Scheduler manages the cron jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *logrus.Logger
}

// NewScheduler creates a scheduler whose jobs recover from panics
func NewScheduler(logger *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		logger: logger,
	}
}

// ScheduleIdempotencyCleanup registers the expired-key purge under a cron spec
func (s *Scheduler) ScheduleIdempotencyCleanup(spec string, cleaner IdempotencyCleaner) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		CleanupIdempotencyKeys(ctx, cleaner, s.logger)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule idempotency cleanup %q: %w", spec, err)
	}

	s.logger.WithField("schedule", spec).Info("Scheduled idempotency key cleanup")
	return nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// CleanupIdempotencyKeys runs one purge and logs the outcome
func CleanupIdempotencyKeys(ctx context.Context, cleaner IdempotencyCleaner, logger *logrus.Logger) int64 {
	removed, err := cleaner.CleanupExpired(ctx)
	if err != nil {
		logger.WithError(err).Error("Idempotency key cleanup failed")
		return 0
	}

	logger.WithField("removed", removed).Info("Idempotency key cleanup finished")
	return removed
}
