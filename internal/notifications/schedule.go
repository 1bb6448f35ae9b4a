package notifications

import "time"

// atClock anchors a wall-clock offset on a calendar date in loc. Only the
// year, month and day of date are used, so a DATE scanned as UTC midnight
// lands on the intended local day.
func atClock(date time.Time, clock time.Duration, loc *time.Location) time.Time {
	y, m, d := date.Date()
	h := int(clock / time.Hour)
	mi := int(clock % time.Hour / time.Minute)
	sec := int(clock % time.Minute / time.Second)
	return time.Date(y, m, d, h, mi, sec, 0, loc)
}

// shiftEnd places the end on the start's day, rolling to the next day for
// shifts that cross midnight.
func shiftEnd(date time.Time, start time.Time, endClock time.Duration, loc *time.Location) time.Time {
	end := atClock(date, endClock, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// EventAssignment resolves an event row. The scheduled start is the call time
// when set, otherwise the event start time; ok is false when neither exists.
func EventAssignment(r EventRow, loc *time.Location) (Assignment, bool) {
	clock := r.CallTime
	if clock == nil {
		clock = r.StartTime
	}
	if clock == nil {
		return Assignment{}, false
	}

	a := Assignment{
		ID:       r.AssignmentID,
		Kind:     KindEvent,
		UserID:   r.UserID,
		ShiftID:  r.EventID,
		Name:     r.Title,
		Location: r.Location,
		Start:    atClock(r.Date, *clock, loc),
	}
	if r.EndTime != nil {
		// The end is measured against the event start, not the earlier call time.
		ref := a.Start
		if r.StartTime != nil {
			ref = atClock(r.Date, *r.StartTime, loc)
		}
		end := shiftEnd(r.Date, ref, *r.EndTime, loc)
		a.End = &end
	}
	return a, true
}

// WarehouseAssignment resolves a warehouse shift row; ok is false when the
// shift has no start time.
func WarehouseAssignment(r WarehouseRow, loc *time.Location) (Assignment, bool) {
	if r.StartTime == nil {
		return Assignment{}, false
	}
	a := Assignment{
		ID:       r.AssignmentID,
		Kind:     KindWarehouse,
		UserID:   r.UserID,
		ShiftID:  r.ShiftID,
		Name:     r.Name,
		Location: r.Location,
		Start:    atClock(r.Date, *r.StartTime, loc),
	}
	if r.EndTime != nil {
		end := shiftEnd(r.Date, a.Start, *r.EndTime, loc)
		a.End = &end
	}
	return a, true
}

// today returns local midnight of now in loc.
func today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
