// Command notify is the shift notifier CLI: one-shot runs for external cron,
// schema migrations and template inspection.
//
// Usage:
//
//	shift-notifier run
//	shift-notifier run --dry-run --now 2025-03-10T08:50:00+01:00
//	shift-notifier migrate up
//	shift-notifier migrate down
//	shift-notifier migrate version
//	shift-notifier templates
//	shift-notifier prune-claims
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/crewmanager/shift-notifier/internal/config"
	"github.com/crewmanager/shift-notifier/internal/db"
	"github.com/crewmanager/shift-notifier/internal/maintenance"
	"github.com/crewmanager/shift-notifier/internal/notifications"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "shift-notifier",
		Short:         "Crew Manager shift notification CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(templatesCmd())
	root.AddCommand(pruneClaimsCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var (
		dryRun bool
		at     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan assignments and dispatch due shift notifications once",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseNow(at)
			if err != nil {
				return err
			}
			return withJob(now, func(ctx context.Context, cfg *config.Config, job *notifications.Job) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.JobTimeout)
				defer cancel()

				out := json.NewEncoder(cmd.OutOrStdout())
				out.SetIndent("", "  ")

				if dryRun {
					candidates, err := job.Plan(ctx)
					if err != nil {
						return fmt.Errorf("plan notifications: %w", err)
					}
					logger.Info("Dry run finished", "candidates", len(candidates))
					return out.Encode(candidates)
				}

				start := time.Now()
				summary, err := job.Run(ctx)
				if err != nil {
					return fmt.Errorf("run notifications: %w", err)
				}
				logger.Info("Notification run finished", "duration", time.Since(start).Round(time.Millisecond))
				return out.Encode(summary)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List due notifications without sending or writing anything")
	cmd.Flags().StringVar(&at, "now", "", "Evaluate windows at this RFC3339 instant instead of the current time")
	return cmd
}

func parseNow(at string) (func() time.Time, error) {
	if at == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil, fmt.Errorf("parse --now: %w", err)
	}
	return func() time.Time { return t }, nil
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the notification schema",
	}
	cmd.AddCommand(migrateStepCmd(db.Up, "Apply all pending migrations"))
	cmd.AddCommand(migrateStepCmd(db.Down, "Roll back the most recent migration"))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				version, dirty, ok, err := m.Version()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
				return nil
			})
		},
	})
	return cmd
}

func migrateStepCmd(dir db.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *db.Migrator) error {
				return m.Run(dir)
			})
		},
	}
}

// --------------------------------------------------------------------------
// templates command
// --------------------------------------------------------------------------

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "Print the reminder windows and their message templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tOFFSET\tTITLE\tBODY")
			for _, t := range notifications.Templates() {
				offset := ""
				if w, ok := notifications.WindowFor(t.Type); ok {
					anchor := "start"
					if w.Anchor == notifications.AnchorEnd {
						anchor = "end"
					}
					offset = fmt.Sprintf("%s%+dm", anchor, -w.Offset)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Type, offset, t.Title, t.Body)
			}
			return tw.Flush()
		},
	}
}

// --------------------------------------------------------------------------
// prune-claims command
// --------------------------------------------------------------------------

func pruneClaimsCmd() *cobra.Command {
	var retention time.Duration
	cmd := &cobra.Command{
		Use:   "prune-claims",
		Short: "Delete notification claims older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if !cmd.Flags().Changed("retention") {
					retention = cfg.ClaimRetention
				}
				n, err := maintenance.PruneClaims(ctx, pool.Pool, retention, logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pruned=%d\n", n)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&retention, "retention", 48*time.Hour, "Minimum claim age to delete (default CLAIM_RETENTION_HOURS)")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func withJob(now func() time.Time, fn func(ctx context.Context, cfg *config.Config, job *notifications.Job) error) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
		return fn(ctx, cfg, notifications.NewFromConfig(pool.Pool, cfg, now, logger))
	})
}

func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = config.NewLogger(cfg, os.Stderr)

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func withMigrator(fn func(m *db.Migrator) error) error {
	dbURL, err := config.LoadDatabaseURL()
	if err != nil {
		return err
	}
	m, err := db.NewMigrator(dbURL, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
