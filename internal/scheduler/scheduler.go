// Package scheduler triggers notification runs from an in-process cron.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crewmanager/shift-notifier/internal/notifications"
)

// Runner is the job the scheduler fires.
type Runner interface {
	Run(ctx context.Context) (notifications.Summary, error)
}

// Scheduler fires Runner.Run on a cron spec. A tick that arrives while the
// previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a scheduler evaluating spec in loc. Standard five-field specs
// and descriptors such as "@every 2m" are accepted.
func New(runner Runner, spec string, loc *time.Location, timeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:  runner,
		spec:    spec,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the job and starts the cron engine in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("add cron job %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("Notification scheduler started", "spec", s.spec)
	return nil
}

// Stop stops new ticks and waits for an in-flight run to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Notification scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Notification scheduler stop timed out", "error", ctx.Err())
	}
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if _, err := s.runner.Run(ctx); err != nil {
		s.logger.Error("Scheduled notification run failed", "error", err)
	}
}
