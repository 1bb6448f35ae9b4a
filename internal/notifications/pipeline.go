package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewmanager/shift-notifier/internal/config"
)

// Job is one configured notification scanner/dispatcher. It is safe to call
// Run concurrently; overlapping runs are kept apart by the claim table.
type Job struct {
	store     Store
	sender    Sender
	loc       *time.Location
	tolerance int
	rangeDays int
	now       func() time.Time
	logger    *slog.Logger

	mu   sync.Mutex
	last *RunReport
}

// Options tunes a Job. Zero Location means UTC; nil Now means time.Now.
type Options struct {
	Location       *time.Location
	Tolerance      int
	EventRangeDays int
	Now            func() time.Time
}

// NewJob wires a job to its backend and push sender.
func NewJob(store Store, sender Sender, opts Options, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Job{
		store:     store,
		sender:    sender,
		loc:       loc,
		tolerance: opts.Tolerance,
		rangeDays: opts.EventRangeDays,
		now:       now,
		logger:    logger,
	}
}

// NewFromConfig builds the production job: the pgx store on pool and the
// push client pointed at the backend push function.
func NewFromConfig(pool *pgxpool.Pool, cfg *config.Config, now func() time.Time, logger *slog.Logger) *Job {
	sender := NewPushClient(cfg.PushEndpoint(), cfg.SupabaseServiceKey, cfg.PushTimeout, cfg.PushRatePerSecond, logger)
	return NewJob(NewPgStore(pool), sender, Options{
		Location:       cfg.CompanyTimezone,
		Tolerance:      cfg.WindowTolerance,
		EventRangeDays: cfg.EventRangeDays,
		Now:            now,
	}, logger)
}

// Run performs one full pass: event windows first, then warehouse windows.
// Per-candidate failures are counted and never abort the run; a scan error
// does, and is returned alongside the partial summary.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	runID := uuid.New()
	started := j.now()
	logger := j.logger.With("run_id", runID.String())

	var sum Summary
	checked, err := j.walk(ctx, started.In(j.loc), func(c Candidate) {
		j.process(ctx, runID, c, &sum, logger)
	})
	sum.Checked = checked
	sum.Success = err == nil

	report := RunReport{
		RunID:      runID,
		StartedAt:  started,
		DurationMS: j.now().Sub(started).Milliseconds(),
		Summary:    sum,
	}
	if err != nil {
		report.Error = err.Error()
	}
	j.record(report)

	if err != nil {
		logger.Error("shift notification run failed", "error", err,
			"checked", sum.Checked, "sent", sum.Sent, "failed", sum.Failed)
		return sum, err
	}
	logger.Info("shift notification run complete",
		"checked", sum.Checked, "found", sum.Found, "sent", sum.Sent, "failed", sum.Failed)
	return sum, nil
}

// Plan returns the candidates a run would dispatch right now, without
// claiming, sending or writing anything.
func (j *Job) Plan(ctx context.Context) ([]Candidate, error) {
	var (
		out     []Candidate
		scanErr error
	)
	_, err := j.walk(ctx, j.now().In(j.loc), func(c Candidate) {
		if scanErr != nil {
			return
		}
		ok, err := j.eligible(ctx, c)
		if err != nil {
			scanErr = err
			return
		}
		if ok {
			out = append(out, c)
		}
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return out, nil
}

// LastRun returns the report of the most recent Run in this process.
func (j *Job) LastRun() (RunReport, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return RunReport{}, false
	}
	return *j.last, true
}

func (j *Job) record(r RunReport) {
	j.mu.Lock()
	j.last = &r
	j.mu.Unlock()
}

// walk loads each assignment family in turn and hands every window match to
// visit. It returns the number of assignments examined.
func (j *Job) walk(ctx context.Context, now time.Time, visit func(Candidate)) (int, error) {
	checked := 0
	day := today(now, j.loc)

	// 1. Events in [today - range, today + range]
	events, err := j.store.EventAssignments(ctx, day.AddDate(0, 0, -j.rangeDays), day.AddDate(0, 0, j.rangeDays))
	if err != nil {
		return checked, fmt.Errorf("load event assignments: %w", err)
	}
	for _, row := range events {
		checked++
		a, ok := EventAssignment(row, j.loc)
		if !ok {
			j.logger.Debug("event assignment has no start time", "assignment_id", row.AssignmentID)
			continue
		}
		for _, c := range Classify(a, now, j.tolerance) {
			visit(c)
		}
	}

	// 2. Warehouse shifts dated today, plus last night's shifts still ending today
	shifts, err := j.store.WarehouseAssignments(ctx, day)
	if err != nil {
		return checked, fmt.Errorf("load warehouse assignments: %w", err)
	}
	for _, row := range shifts {
		checked++
		a, ok := WarehouseAssignment(row, j.loc)
		if !ok {
			continue
		}
		for _, c := range Classify(a, now, j.tolerance) {
			visit(c)
		}
	}
	return checked, nil
}
