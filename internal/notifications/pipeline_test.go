package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func at(h, m, s int) time.Time {
	return time.Date(2025, 3, 10, h, m, s, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestJob(store Store, sender Sender, now time.Time) *Job {
	return NewJob(store, sender, Options{
		Location:       time.UTC,
		Tolerance:      1,
		EventRangeDays: 1,
		Now:            func() time.Time { return now },
	}, quietLogger())
}

func warehouseShift(id, user string, start, end *time.Duration) WarehouseRow {
	return WarehouseRow{
		AssignmentID: "wa-" + id + "-" + user,
		UserID:       user,
		ShiftID:      id,
		Name:         "Turno " + id,
		Location:     "Magazzino",
		Date:         testDay,
		StartTime:    start,
		EndTime:      end,
	}
}

func TestRunSendsPreShift10(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), clock(17, 0))}
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := Summary{Success: true, Checked: 1, Found: 1, Sent: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	if len(sender.pushes) != 1 || sender.pushes[0].Data["type"] != string(TypePreShift10) {
		t.Fatalf("pushes = %+v", sender.pushes)
	}
	if len(store.logs) != 1 || store.logs[0].Status != StatusSent {
		t.Errorf("logs = %+v", store.logs)
	}
	if len(store.inApp) != 1 || store.inApp[0].Type != TypePreShift10 || store.inApp[0].ShiftID != "s1" {
		t.Errorf("in-app = %+v", store.inApp)
	}
}

func TestRunDoesNotDuplicateAcrossRuns(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	sender := newFakeSender()

	if _, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background()); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	// 08:50:30 still rounds to 10 minutes out.
	sum, err := setupTestJob(store, sender, at(8, 50, 30)).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if sum.Found != 0 || sum.Sent != 0 {
		t.Errorf("second run summary = %+v, want nothing found", sum)
	}
	if len(sender.pushes) != 1 {
		t.Errorf("pushes = %d, want 1", len(sender.pushes))
	}
	if len(store.logs) != 1 {
		t.Errorf("logs = %d, want 1", len(store.logs))
	}
}

func TestRunSkipsExistingLog(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	store.logs = []LogEntry{{Key: Key{UserID: "u1", ShiftID: "s1", Type: TypePreShift10}, Status: StatusFailed}}
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Found != 0 || len(sender.pushes) != 0 {
		t.Errorf("summary = %+v, pushes = %d; want no dispatch", sum, len(sender.pushes))
	}
}

func TestRunCheckedInSuppressesStartReminders(t *testing.T) {
	for _, now := range []time.Time{at(9, 0, 0), at(9, 10, 0)} {
		store := newFakeStore()
		store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
		store.warehouseCheckIns["s1/u1"] = CheckIn{In: ts(at(8, 55, 0))}
		sender := newFakeSender()

		sum, err := setupTestJob(store, sender, now).Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if sum.Found != 0 || len(sender.pushes) != 0 {
			t.Errorf("at %s: summary = %+v, want suppressed", now.Format("15:04"), sum)
		}
	}
}

func TestRunNotCheckedInGetsLateReminder(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(9, 10, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Sent != 1 || sender.pushes[0].Data["type"] != string(TypePreShiftLate10) {
		t.Errorf("summary = %+v, pushes = %+v", sum, sender.pushes)
	}
}

func TestRunEventCheckInKeyedByAssignment(t *testing.T) {
	store := newFakeStore()
	store.events = []EventRow{{
		AssignmentID: "ea1", UserID: "u1", EventID: "e1", Title: "Fiera",
		Date: testDay, CallTime: clock(9, 0),
	}}
	store.eventCheckIns["ea1"] = CheckIn{In: ts(at(8, 58, 0))}
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(9, 0, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Found != 0 {
		t.Errorf("summary = %+v, want pre_shift_0 suppressed", sum)
	}
}

func TestRunPostShiftRequiresOpenCheckIn(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  CheckIn
		wantSent int
	}{
		{"checked in", CheckIn{In: ts(at(9, 0, 0))}, 1},
		{"checked out", CheckIn{In: ts(at(9, 0, 0)), Out: ts(at(17, 2, 0))}, 0},
		{"never checked in", CheckIn{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), clock(17, 0))}
			store.warehouseCheckIns["s1/u1"] = tt.checkIn
			sender := newFakeSender()

			sum, err := setupTestJob(store, sender, at(17, 10, 0)).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if sum.Sent != tt.wantSent {
				t.Errorf("Sent = %d, want %d", sum.Sent, tt.wantSent)
			}
			if tt.wantSent == 1 && sender.pushes[0].Data["type"] != string(TypePostShift10) {
				t.Errorf("push type = %s", sender.pushes[0].Data["type"])
			}
		})
	}
}

func TestRunOvernightShiftGetsCheckoutReminder(t *testing.T) {
	store := newFakeStore()
	night := warehouseShift("n1", "u1", clock(22, 0), clock(6, 0))
	night.Date = testDay.AddDate(0, 0, -1)
	day := warehouseShift("d1", "u2", clock(9, 0), clock(17, 0))
	day.Date = testDay.AddDate(0, 0, -1)
	store.warehouse = []WarehouseRow{night, day}
	store.warehouseCheckIns["n1/u1"] = CheckIn{In: ts(night.Date.Add(22 * time.Hour))}
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(6, 10, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := Summary{Success: true, Checked: 1, Found: 1, Sent: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	if len(sender.pushes) != 1 || sender.pushes[0].Data["type"] != string(TypePostShift10) ||
		sender.pushes[0].Data["shift_id"] != "n1" {
		t.Errorf("pushes = %+v", sender.pushes)
	}
}

func TestRunFailureDoesNotStopLaterCandidates(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{
		warehouseShift("s1", "u1", clock(9, 0), nil),
		warehouseShift("s1", "u2", clock(9, 0), nil),
	}
	sender := newFakeSender()
	sender.failOn["u1"] = &DeliveryError{StatusCode: 500, Body: "boom"}

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := Summary{Success: true, Checked: 2, Found: 2, Sent: 1, Failed: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}
	if len(store.logs) != 2 {
		t.Fatalf("logs = %+v", store.logs)
	}
	if store.logs[0].Status != StatusFailed || store.logs[0].Error != "boom" {
		t.Errorf("first log = %+v, want failed with body", store.logs[0])
	}
	if store.logs[1].Status != StatusSent {
		t.Errorf("second log = %+v, want sent", store.logs[1])
	}
	// In-app records are written regardless of push outcome.
	if len(store.inApp) != 2 {
		t.Errorf("in-app = %d, want 2", len(store.inApp))
	}
}

func TestRunGuardErrorCountsFailed(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{
		warehouseShift("s1", "u1", clock(9, 0), nil),
		warehouseShift("s1", "u2", clock(9, 0), nil),
	}
	store.hasSentErr[Key{UserID: "u1", ShiftID: "s1", Type: TypePreShift10}] = errBackend
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Failed != 1 || sum.Sent != 1 || sum.Found != 1 {
		t.Errorf("summary = %+v, want 1 failed and 1 sent", sum)
	}
	if len(sender.pushes) != 1 || sender.pushes[0].UserID != "u2" {
		t.Errorf("pushes = %+v", sender.pushes)
	}
}

func TestRunClaimedElsewhereIsSkipped(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	store.claims[Key{UserID: "u1", ShiftID: "s1", Type: TypePreShift10}] = uuid.New()
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sum.Found != 0 || len(sender.pushes) != 0 {
		t.Errorf("summary = %+v, want claim to block dispatch", sum)
	}
}

func TestRunEventWithoutTimesNeverNotifies(t *testing.T) {
	store := newFakeStore()
	store.events = []EventRow{{
		AssignmentID: "ea1", UserID: "u1", EventID: "e1", Title: "Fiera",
		Date: testDay, EndTime: clock(18, 0),
	}}
	sender := newFakeSender()

	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 10, 20, 30, 40, 50} {
			sum, err := setupTestJob(store, sender, at(h, m, 0)).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if sum.Checked != 1 || sum.Found != 0 {
				t.Fatalf("at %02d:%02d summary = %+v", h, m, sum)
			}
		}
	}
	if len(sender.pushes) != 0 {
		t.Errorf("pushes = %d, want 0", len(sender.pushes))
	}
}

func TestRunEventsBeforeWarehouse(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	store.events = []EventRow{{
		AssignmentID: "ea1", UserID: "u2", EventID: "e1", Title: "Fiera",
		Date: testDay, StartTime: clock(9, 0),
	}}
	sender := newFakeSender()

	if _, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(sender.pushes) != 2 || sender.pushes[0].UserID != "u2" || sender.pushes[1].UserID != "u1" {
		t.Errorf("pushes = %+v, want event first", sender.pushes)
	}
	if !store.eventsFrom.Equal(testDay.AddDate(0, 0, -1)) || !store.eventsTo.Equal(testDay.AddDate(0, 0, 1)) {
		t.Errorf("event range = [%s, %s]", store.eventsFrom, store.eventsTo)
	}
	if !store.warehouseDay.Equal(testDay) {
		t.Errorf("warehouse day = %s", store.warehouseDay)
	}
}

func TestRunScanErrorAborts(t *testing.T) {
	store := newFakeStore()
	store.eventsErr = errBackend
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	sender := newFakeSender()
	job := setupTestJob(store, sender, at(8, 50, 0))

	sum, err := job.Run(context.Background())
	if !errors.Is(err, errBackend) {
		t.Fatalf("Run() error = %v, want backend error", err)
	}
	if sum.Success {
		t.Error("Success should be false")
	}
	if len(sender.pushes) != 0 {
		t.Error("no pushes expected after scan failure")
	}

	report, ok := job.LastRun()
	if !ok || report.Error == "" || report.Summary.Success {
		t.Errorf("LastRun() = %+v, %v", report, ok)
	}
}

func TestRunWarehouseScanErrorKeepsEventDispatch(t *testing.T) {
	store := newFakeStore()
	store.events = []EventRow{{
		AssignmentID: "ea1", UserID: "u2", EventID: "e1", Date: testDay, StartTime: clock(9, 0),
	}}
	store.warehouseErr = errBackend
	sender := newFakeSender()

	sum, err := setupTestJob(store, sender, at(8, 50, 0)).Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if sum.Sent != 1 || len(store.logs) != 1 {
		t.Errorf("summary = %+v, logs = %d; event dispatch should stand", sum, len(store.logs))
	}
}

func TestPlanHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	store.warehouse = []WarehouseRow{warehouseShift("s1", "u1", clock(9, 0), nil)}
	sender := newFakeSender()

	got, err := setupTestJob(store, sender, at(8, 50, 0)).Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(got) != 1 || got[0].Type != TypePreShift10 || got[0].Diff != 10 {
		t.Errorf("Plan() = %+v", got)
	}
	if len(sender.pushes) != 0 || len(store.logs) != 0 || len(store.claims) != 0 || len(store.inApp) != 0 {
		t.Error("Plan() must not write or send")
	}
}

func TestLastRunEmpty(t *testing.T) {
	job := setupTestJob(newFakeStore(), newFakeSender(), at(8, 0, 0))
	if _, ok := job.LastRun(); ok {
		t.Error("LastRun() should be empty before any run")
	}
}

func TestDispatchWithoutTemplateStillWritesInApp(t *testing.T) {
	store := newFakeStore()
	sender := newFakeSender()
	job := setupTestJob(store, sender, at(8, 50, 0))

	a, _ := WarehouseAssignment(warehouseShift("s1", "u1", clock(9, 0), nil), time.UTC)
	c := Candidate{Assignment: a, Type: Type("pre_shift_60"), Scheduled: a.Start, Diff: 60}
	key := Key{UserID: "u1", ShiftID: "s1", Type: c.Type}

	if job.dispatch(context.Background(), c, key, quietLogger()) {
		t.Error("dispatch() = true, want false without a template")
	}
	if len(sender.pushes) != 0 {
		t.Errorf("pushes = %+v, want none", sender.pushes)
	}
	if len(store.logs) != 1 || store.logs[0].Status != StatusFailed || store.logs[0].Error == "" {
		t.Errorf("logs = %+v, want one failed entry", store.logs)
	}
	if len(store.inApp) != 1 || store.inApp[0].Type != c.Type {
		t.Errorf("in-app = %+v, want one record", store.inApp)
	}
}
