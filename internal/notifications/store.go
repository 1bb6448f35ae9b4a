package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the backend surface the job needs. PgStore is the production
// implementation; tests use an in-memory fake.
type Store interface {
	EventAssignments(ctx context.Context, from, to time.Time) ([]EventRow, error)
	WarehouseAssignments(ctx context.Context, day time.Time) ([]WarehouseRow, error)
	HasSent(ctx context.Context, k Key) (bool, error)
	EventCheckIn(ctx context.Context, assignmentID string) (CheckIn, error)
	WarehouseCheckIn(ctx context.Context, shiftID, userID string) (CheckIn, error)
	Claim(ctx context.Context, k Key, runID uuid.UUID) (bool, error)
	LogDispatch(ctx context.Context, e LogEntry) error
	CreateInApp(ctx context.Context, n InApp) error
}

// PgStore runs the prepared statements registered by internal/db.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore wraps a pool whose connections carry the notify_* statements.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EventAssignments returns event assignments with an event date in [from, to].
func (s *PgStore) EventAssignments(ctx context.Context, from, to time.Time) ([]EventRow, error) {
	rows, err := s.pool.Query(ctx, "notify_event_assignments", dateOnly(from), dateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("get event assignments: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			r                    EventRow
			date                 pgtype.Date
			call, start, endTime pgtype.Time
		)
		if err := rows.Scan(&r.AssignmentID, &r.UserID, &r.EventID, &r.Title, &r.Location,
			&date, &call, &start, &endTime); err != nil {
			return nil, fmt.Errorf("scan event assignment: %w", err)
		}
		r.Date = date.Time
		r.CallTime = clockOf(call)
		r.StartTime = clockOf(start)
		r.EndTime = clockOf(endTime)
		out = append(out, r)
	}
	return out, rows.Err()
}

// WarehouseAssignments returns warehouse shift assignments dated day, plus
// the previous day's overnight shifts, which end on day.
func (s *PgStore) WarehouseAssignments(ctx context.Context, day time.Time) ([]WarehouseRow, error) {
	rows, err := s.pool.Query(ctx, "notify_warehouse_assignments", dateOnly(day))
	if err != nil {
		return nil, fmt.Errorf("get warehouse assignments: %w", err)
	}
	defer rows.Close()

	var out []WarehouseRow
	for rows.Next() {
		var (
			r          WarehouseRow
			date       pgtype.Date
			start, end pgtype.Time
		)
		if err := rows.Scan(&r.AssignmentID, &r.UserID, &r.ShiftID, &r.Name, &r.Location,
			&date, &start, &end); err != nil {
			return nil, fmt.Errorf("scan warehouse assignment: %w", err)
		}
		r.Date = date.Time
		r.StartTime = clockOf(start)
		r.EndTime = clockOf(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasSent reports whether any log row exists for the triple.
func (s *PgStore) HasSent(ctx context.Context, k Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, "notify_has_sent", k.UserID, k.ShiftID, string(k.Type)).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check notification log: %w", err)
	}
	return exists, nil
}

// EventCheckIn reads the inline check-in columns of an event assignment.
func (s *PgStore) EventCheckIn(ctx context.Context, assignmentID string) (CheckIn, error) {
	return s.checkIn(ctx, "notify_event_checkin", assignmentID)
}

// WarehouseCheckIn reads the latest check-in row for (shift, user).
func (s *PgStore) WarehouseCheckIn(ctx context.Context, shiftID, userID string) (CheckIn, error) {
	return s.checkIn(ctx, "notify_warehouse_checkin", shiftID, userID)
}

func (s *PgStore) checkIn(ctx context.Context, stmt string, args ...any) (CheckIn, error) {
	var ci CheckIn
	err := s.pool.QueryRow(ctx, stmt, args...).Scan(&ci.In, &ci.Out)
	if errors.Is(err, pgx.ErrNoRows) {
		return CheckIn{}, nil
	}
	if err != nil {
		return CheckIn{}, fmt.Errorf("get check-in: %w", err)
	}
	return ci, nil
}

// Claim inserts the triple into notification_claims. It returns false when
// another run already holds it.
func (s *PgStore) Claim(ctx context.Context, k Key, runID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, "notify_claim", k.UserID, k.ShiftID, string(k.Type), runID.String())
	if err != nil {
		return false, fmt.Errorf("claim notification: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// LogDispatch appends the dispatch outcome via log_notification_dispatch.
func (s *PgStore) LogDispatch(ctx context.Context, e LogEntry) error {
	if _, err := s.pool.Exec(ctx, "notify_log_dispatch",
		e.UserID, e.ShiftID, string(e.Type), e.Status, e.Error); err != nil {
		return fmt.Errorf("log notification dispatch: %w", err)
	}
	return nil
}

// CreateInApp writes the in-app record via create_in_app_notification.
func (s *PgStore) CreateInApp(ctx context.Context, n InApp) error {
	if _, err := s.pool.Exec(ctx, "notify_create_in_app",
		n.UserID, n.Title, n.Message, string(n.Type), n.ShiftID); err != nil {
		return fmt.Errorf("create in-app notification: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func dateOnly(t time.Time) pgtype.Date {
	y, m, d := t.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func clockOf(t pgtype.Time) *time.Duration {
	if !t.Valid {
		return nil
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	return &d
}
