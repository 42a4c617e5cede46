package hours

import "time"

// NextOpening finds the next instant strictly after ref at which the
// store transitions to open, using only the weekly schedule. It checks
// the remainder of ref's day first, then scans forward one day at a
// time for up to seven days; on the first day carrying an Open entry it
// returns the earliest opening of that day. Entries without a start
// time open at midnight. The seven-day bound matches the weekly period:
// if no day of a full week is open, none ever will be.
func NextOpening(schedule []WeeklyEntry, ref time.Time) (time.Time, bool) {
	if len(schedule) == 0 {
		return time.Time{}, false
	}

	dow := int(ref.Weekday())
	var best time.Time
	for _, e := range schedule {
		if e.DayOfWeek != dow || e.Open != Open || e.StartTime == "" {
			continue
		}
		minutes, err := ParseClock(e.StartTime)
		if err != nil {
			continue
		}
		cand := clockOn(ref, minutes)
		if cand.After(ref) && (best.IsZero() || cand.Before(best)) {
			best = cand
		}
	}
	if !best.IsZero() {
		return best, true
	}

	for i := 1; i <= 7; i++ {
		day := ref.AddDate(0, 0, i)
		dow := int(day.Weekday())
		var earliest time.Time
		for _, e := range schedule {
			if e.DayOfWeek != dow || e.Open != Open {
				continue
			}
			cand := clockOn(day, 0)
			if e.StartTime != "" {
				minutes, err := ParseClock(e.StartTime)
				if err != nil {
					continue
				}
				cand = clockOn(day, minutes)
			}
			if earliest.IsZero() || cand.Before(earliest) {
				earliest = cand
			}
		}
		if !earliest.IsZero() {
			return earliest, true
		}
	}
	return time.Time{}, false
}

// clockOn places a minutes-since-midnight clock reading on t's calendar
// day as wall-clock time, so DST offset changes earlier in the day do
// not shift it.
func clockOn(t time.Time, minutes int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), minutes/60, minutes%60, 0, 0, t.Location())
}
