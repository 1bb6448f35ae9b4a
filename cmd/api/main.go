// Command api is the shift notifier HTTP server. It exposes the notification
// trigger for external schedulers and can also run the job from an
// in-process cron when SCHEDULER_ENABLED is set.
//
// Usage:
//
//	shift-notifier-api
//	API_PORT=8080 SCHEDULER_ENABLED=true shift-notifier-api

// @title Crew Manager Shift Notifier API
// @version 1.0.0
// @description Shift reminder job: scans event and warehouse assignments and dispatches push plus in-app notifications.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name Crew Manager
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crewmanager/shift-notifier/internal/api"
	"github.com/crewmanager/shift-notifier/internal/config"
	"github.com/crewmanager/shift-notifier/internal/db"
	"github.com/crewmanager/shift-notifier/internal/maintenance"
	"github.com/crewmanager/shift-notifier/internal/notifications"
	"github.com/crewmanager/shift-notifier/internal/scheduler"

	_ "github.com/crewmanager/shift-notifier/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	job := notifications.NewFromConfig(pool.Pool, cfg, nil, logger)

	// Optional in-process cron
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(job, cfg.SchedulerCron, cfg.CompanyTimezone, cfg.JobTimeout, logger)
		if err := sched.Start(); err != nil {
			logger.Error("Failed to start scheduler", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Notification scheduler disabled (trigger endpoint only)")
	}

	// Start maintenance tickers (claim pruning)
	go maintenance.Start(ctx, pool.Pool, maintenance.Config{
		CleanupInterval: cfg.MaintenanceInterval,
		ClaimRetention:  cfg.ClaimRetention,
	}, logger)

	// Create router
	router := api.NewRouter(job, pool, cfg, logger)

	// Create HTTP server. WriteTimeout leaves room for a full run.
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.JobTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting shift notifier API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
