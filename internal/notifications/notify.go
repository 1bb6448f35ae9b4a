// Package notifications finds shift and event assignments whose start or end
// falls inside a reminder window and delivers one push notification per
// (user, shift, window), mirrored as an in-app notification.
//
// Pipeline: scan assignments → classify windows → guards → claim → push → log + in-app.
// Each run is a single sequential pass; nothing is retried within a run.
package notifications

import (
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Type identifies a reminder window. The string value is what gets stored in
// notification_logs.notification_type and the in-app record.
type Type string

const (
	TypePreShift10     Type = "pre_shift_10"
	TypePreShift0      Type = "pre_shift_0"
	TypePreShiftLate10 Type = "pre_shift_late_10"
	TypePostShift10    Type = "post_shift_10"
	TypePostShift20    Type = "post_shift_20"
	TypePostShift30    Type = "post_shift_30"
)

// Kind is the source table family of an assignment.
type Kind string

const (
	KindEvent     Kind = "event"
	KindWarehouse Kind = "warehouse"
)

// Dispatch outcomes written to the log.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// EventRow is one event assignment as read from the backend. Clock values are
// offsets from midnight; nil means the column is null.
type EventRow struct {
	AssignmentID string
	UserID       string
	EventID      string
	Title        string
	Location     string
	Date         time.Time
	CallTime     *time.Duration
	StartTime    *time.Duration
	EndTime      *time.Duration
}

// WarehouseRow is one warehouse shift assignment as read from the backend.
type WarehouseRow struct {
	AssignmentID string
	UserID       string
	ShiftID      string
	Name         string
	Location     string
	Date         time.Time
	StartTime    *time.Duration
	EndTime      *time.Duration
}

// Assignment is a normalized event or warehouse assignment with absolute
// start and end instants.
type Assignment struct {
	ID       string
	Kind     Kind
	UserID   string
	ShiftID  string // event id or warehouse shift id
	Name     string
	Location string
	Start    time.Time
	End      *time.Time // nil when the source has no end time
}

// CheckIn is the attendance state for an assignment. Both fields nil means the
// user never checked in.
type CheckIn struct {
	In  *time.Time
	Out *time.Time
}

// Key is the de-duplication triple.
type Key struct {
	UserID  string
	ShiftID string
	Type    Type
}

// LogEntry is one append-only dispatch audit row.
type LogEntry struct {
	Key
	Status string
	Error  string
}

// InApp is the in-app mirror of a dispatched notification.
type InApp struct {
	UserID  string
	Title   string
	Message string
	Type    Type
	ShiftID string
}

// Candidate is an assignment matched to a window that passed every guard.
type Candidate struct {
	Assignment Assignment `json:"assignment"`
	Type       Type       `json:"type"`
	Scheduled  time.Time  `json:"scheduled"`
	Diff       int        `json:"diff_minutes"`
}

// Summary is the outcome of a run, serialized as the trigger response.
type Summary struct {
	Success bool `json:"success"`
	Checked int  `json:"checked"`
	Found   int  `json:"found"`
	Sent    int  `json:"sent"`
	Failed  int  `json:"failed"`
}

// RunReport records the most recent run for the last-run endpoint.
type RunReport struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
}
