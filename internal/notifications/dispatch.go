package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// HasCheckedIn reports whether the user has checked in for the assignment.
func (j *Job) HasCheckedIn(ctx context.Context, a Assignment) (bool, error) {
	ci, err := j.checkIn(ctx, a)
	if err != nil {
		return false, err
	}
	return ci.In != nil, nil
}

func (j *Job) checkIn(ctx context.Context, a Assignment) (CheckIn, error) {
	if a.Kind == KindEvent {
		return j.store.EventCheckIn(ctx, a.ID)
	}
	return j.store.WarehouseCheckIn(ctx, a.ShiftID, a.UserID)
}

// eligible runs the read-only guards: the log lookup, then the window's
// attendance guard.
func (j *Job) eligible(ctx context.Context, c Candidate) (bool, error) {
	key := Key{UserID: c.Assignment.UserID, ShiftID: c.Assignment.ShiftID, Type: c.Type}
	sent, err := j.store.HasSent(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check sent: %w", err)
	}
	if sent {
		return false, nil
	}

	w, ok := WindowFor(c.Type)
	if !ok {
		return false, fmt.Errorf("unknown notification type %q", c.Type)
	}
	switch w.Guard {
	case GuardCheckedIn:
		in, err := j.HasCheckedIn(ctx, c.Assignment)
		if err != nil {
			return false, fmt.Errorf("check attendance: %w", err)
		}
		return !in, nil
	case GuardCheckedOut:
		ci, err := j.checkIn(ctx, c.Assignment)
		if err != nil {
			return false, fmt.Errorf("check attendance: %w", err)
		}
		return ci.In != nil && ci.Out == nil, nil
	}
	return true, nil
}

// process takes one window match through guards, claim and dispatch,
// updating the summary counters.
func (j *Job) process(ctx context.Context, runID uuid.UUID, c Candidate, sum *Summary, logger *slog.Logger) {
	key := Key{UserID: c.Assignment.UserID, ShiftID: c.Assignment.ShiftID, Type: c.Type}
	log := logger.With("user_id", key.UserID, "shift_id", key.ShiftID, "type", string(key.Type))

	ok, err := j.eligible(ctx, c)
	if err != nil {
		log.Warn("notification guard failed", "error", err)
		sum.Failed++
		return
	}
	if !ok {
		return
	}

	claimed, err := j.store.Claim(ctx, key, runID)
	if err != nil {
		log.Warn("notification claim failed", "error", err)
		sum.Failed++
		return
	}
	if !claimed {
		log.Debug("notification already claimed")
		return
	}

	sum.Found++
	if j.dispatch(ctx, c, key, log) {
		sum.Sent++
	} else {
		sum.Failed++
	}
}

// dispatch sends the push, then writes the log row and the in-app record.
// The in-app record is written whatever the push outcome.
func (j *Job) dispatch(ctx context.Context, c Candidate, key Key, log *slog.Logger) bool {
	var pushErr error
	title, body, ok := Render(c)
	if ok {
		pushErr = j.sender.Send(ctx, Push{
			UserID: key.UserID,
			Title:  title,
			Body:   body,
			Data:   pushData(c),
		})
	} else {
		title = string(key.Type)
		pushErr = fmt.Errorf("no template for notification type %q", key.Type)
	}

	entry := LogEntry{Key: key, Status: StatusSent}
	if pushErr != nil {
		entry.Status = StatusFailed
		entry.Error = FailureDetail(pushErr)
		log.Warn("push notification failed", "error", pushErr)
	} else {
		log.Info("push notification sent")
	}
	if err := j.store.LogDispatch(ctx, entry); err != nil {
		log.Warn("notification log write failed", "error", err)
	}

	if err := j.store.CreateInApp(ctx, InApp{
		UserID:  key.UserID,
		Title:   title,
		Message: body,
		Type:    key.Type,
		ShiftID: key.ShiftID,
	}); err != nil {
		log.Warn("in-app notification write failed", "error", err)
	}

	return pushErr == nil
}

func pushData(c Candidate) map[string]string {
	return map[string]string{
		"type":          string(c.Type),
		"kind":          string(c.Assignment.Kind),
		"shift_id":      c.Assignment.ShiftID,
		"assignment_id": c.Assignment.ID,
		"scheduled_at":  c.Scheduled.Format(time.RFC3339),
	}
}
