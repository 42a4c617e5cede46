package hours

import "time"

// Resolver answers open/closed queries. The clock is injectable because
// year-agnostic override dates are resolved against the current year;
// tests pin it to a fixed instant.
type Resolver struct {
	clock func() time.Time
}

// NewResolver returns a resolver on the wall clock.
func NewResolver() *Resolver {
	return &Resolver{clock: time.Now}
}

// NewResolverAt returns a resolver with a fixed clock.
func NewResolverAt(clock func() time.Time) *Resolver {
	return &Resolver{clock: clock}
}

// IsOpen reports whether the store is open on (month, day) at the given
// "HH:MM" slot. Overrides for the date take precedence over the weekly
// schedule:
//
//  1. Any Open override whose time range contains the slot, or that
//     carries no range at all (open all day), wins immediately.
//  2. Failing that, a Closed override for the date suppresses the
//     weekly schedule.
//  3. Otherwise the weekly entries for the date's day of week decide,
//     first match wins.
//
// Missing or invalid input never raises an error; it degrades to false.
// The day of week is computed against the current year, so year-boundary
// and leap-day dates are approximate.
func (r *Resolver) IsOpen(schedule []WeeklyEntry, overrides []Override, month, day int, slot string) bool {
	if len(schedule) == 0 {
		return false
	}

	sawClosed := false
	for _, o := range overrides {
		if o.Month != month || o.Day != day {
			continue
		}
		switch o.Open {
		case Open:
			if o.StartTime != "" && o.EndTime != "" {
				if ok, err := WithinRange(slot, o.StartTime, o.EndTime); err == nil && ok {
					return true
				}
				continue
			}
			// No custom hours: the override opens the whole day.
			return true
		case Closed:
			sawClosed = true
		}
	}
	if sawClosed {
		return false
	}

	dow := r.dayOfWeek(month, day)
	for _, e := range schedule {
		if e.DayOfWeek != dow || e.Open != Open {
			continue
		}
		if e.StartTime != "" && e.EndTime != "" {
			if ok, err := WithinRange(slot, e.StartTime, e.EndTime); err == nil && ok {
				return true
			}
			continue
		}
		if e.StartTime == "" && e.EndTime == "" {
			return true
		}
		// A single bound is not enough to prove the store open.
	}
	return false
}

func (r *Resolver) dayOfWeek(month, day int) int {
	year := r.clock().Year()
	return int(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local).Weekday())
}
