package notifications

import (
	"math"
	"time"
)

// Anchor selects which end of an assignment a window is measured from.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorEnd
)

// Guard is the attendance check a window applies before dispatch.
type Guard int

const (
	GuardNone Guard = iota
	// GuardCheckedIn suppresses the window once the user has checked in.
	GuardCheckedIn
	// GuardCheckedOut requires a check-in and suppresses after check-out.
	GuardCheckedOut
)

// Window is one reminder slot. Offset is the target value of
// (scheduled - now) in minutes: positive before, negative after.
type Window struct {
	Type   Type
	Anchor Anchor
	Offset int
	Guard  Guard
}

// Windows lists every reminder slot in evaluation order.
var Windows = []Window{
	{Type: TypePreShift10, Anchor: AnchorStart, Offset: 10, Guard: GuardNone},
	{Type: TypePreShift0, Anchor: AnchorStart, Offset: 0, Guard: GuardCheckedIn},
	{Type: TypePreShiftLate10, Anchor: AnchorStart, Offset: -10, Guard: GuardCheckedIn},
	{Type: TypePostShift10, Anchor: AnchorEnd, Offset: -10, Guard: GuardCheckedOut},
	{Type: TypePostShift20, Anchor: AnchorEnd, Offset: -20, Guard: GuardCheckedOut},
	{Type: TypePostShift30, Anchor: AnchorEnd, Offset: -30, Guard: GuardCheckedOut},
}

// WindowFor returns the window definition of a type.
func WindowFor(t Type) (Window, bool) {
	for _, w := range Windows {
		if w.Type == t {
			return w, true
		}
	}
	return Window{}, false
}

// DiffMinutes is (scheduled - now) rounded to the nearest whole minute.
func DiffMinutes(scheduled, now time.Time) int {
	return int(math.Round(scheduled.Sub(now).Minutes()))
}

// Match reports whether the assignment falls inside w at now, returning the
// anchor instant and the rounded minute difference.
func (w Window) Match(a Assignment, now time.Time, tolerance int) (time.Time, int, bool) {
	scheduled := a.Start
	if w.Anchor == AnchorEnd {
		if a.End == nil {
			return time.Time{}, 0, false
		}
		scheduled = *a.End
	}
	diff := DiffMinutes(scheduled, now)
	d := diff - w.Offset
	if d < 0 {
		d = -d
	}
	return scheduled, diff, d <= tolerance
}

// Classify returns every window the assignment falls into at now.
func Classify(a Assignment, now time.Time, tolerance int) []Candidate {
	var out []Candidate
	for _, w := range Windows {
		scheduled, diff, ok := w.Match(a, now, tolerance)
		if !ok {
			continue
		}
		out = append(out, Candidate{Assignment: a, Type: w.Type, Scheduled: scheduled, Diff: diff})
	}
	return out
}
