// Package db provides a pgxpool-based connection pool with prepared statement
// registration, health checking and embedded schema migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewmanager/shift-notifier/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements maps prepared statement names to SQL. The notification store
// queries by name, so every entry here must exist before the pool is used.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Scanner
	"notify_event_assignments": `SELECT ea.id::text, ea.user_id::text, e.id::text, e.title, COALESCE(e.location, ''),
		e.event_date, ea.call_time, e.start_time, e.end_time
		FROM event_assignments ea
		JOIN events e ON e.id = ea.event_id
		WHERE e.event_date BETWEEN $1 AND $2 AND ea.status <> 'cancelled'
		ORDER BY e.event_date, ea.id`,
	"notify_warehouse_assignments": `SELECT wa.id::text, wa.user_id::text, ws.id::text, ws.name, COALESCE(ws.location, ''),
		ws.shift_date, ws.start_time, ws.end_time
		FROM warehouse_shift_assignments wa
		JOIN warehouse_shifts ws ON ws.id = wa.shift_id
		WHERE ws.shift_date = $1
		   OR (ws.shift_date = $1::date - 1 AND ws.end_time <= ws.start_time)
		ORDER BY ws.shift_date, ws.start_time, wa.id`,

	// Guards
	"notify_has_sent": `SELECT EXISTS (SELECT 1 FROM notification_logs
		WHERE user_id = $1::uuid AND shift_id = $2::uuid AND notification_type = $3)`,
	"notify_event_checkin":     "SELECT check_in_at, check_out_at FROM event_assignments WHERE id = $1::uuid",
	"notify_warehouse_checkin": "SELECT check_in_time, check_out_time FROM warehouse_checkins WHERE shift_id = $1::uuid AND user_id = $2::uuid ORDER BY check_in_time DESC LIMIT 1",

	// Dispatch
	"notify_claim": `INSERT INTO notification_claims (user_id, shift_id, notification_type, run_id)
		VALUES ($1::uuid, $2::uuid, $3, $4::uuid)
		ON CONFLICT (user_id, shift_id, notification_type) DO NOTHING`,
	"notify_log_dispatch":  "SELECT log_notification_dispatch($1::uuid, $2::uuid, $3, $4, $5)",
	"notify_create_in_app": "SELECT create_in_app_notification($1::uuid, $2, $3, $4, $5::uuid)",
}

// registerPreparedStatements registers all statements the notification job
// uses. Prepared statements eliminate parse overhead on every run.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
