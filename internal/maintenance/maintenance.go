// Package maintenance runs periodic background tasks as Go tickers inside the
// API process.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool the tasks use.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // Claim pruning
	ClaimRetention  time.Duration // Age after which a claim can no longer matter
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, db Execer, cfg Config, logger *slog.Logger) {
	if cfg.CleanupInterval <= 0 {
		logger.Info("Maintenance tickers disabled")
		return
	}
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"claim_retention", cfg.ClaimRetention)

	t := time.NewTicker(cfg.CleanupInterval)
	defer t.Stop()

	runLoop(ctx, t.C, func() {
		if _, err := PruneClaims(ctx, db, cfg.ClaimRetention, logger); err != nil {
			logger.Warn("Cleanup: failed to prune notification claims", "error", err)
		}
	})
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// PruneClaims deletes claims older than retention. Every reminder window
// closes within 31 minutes of its shift boundary, so an old claim can never
// block a pending send; notification_logs keeps its own unique index.
func PruneClaims(ctx context.Context, db Execer, retention time.Duration, logger *slog.Logger) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("claim retention must be positive, got %s", retention)
	}
	tag, err := db.Exec(ctx,
		`DELETE FROM notification_claims WHERE claimed_at < NOW() - make_interval(secs => $1)`,
		retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("prune notification claims: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		logger.Info("Cleanup: pruned notification claims", "count", n)
	}
	return tag.RowsAffected(), nil
}
