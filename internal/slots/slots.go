// Package slots generates the fixed quarter-hour slot labels and the
// rolling date window the booking UI offers.
package slots

import (
	"fmt"
	"time"
)

// SlotDurationMinutes is the fixed slot length.
const SlotDurationMinutes = 15

// SlotsPerDay is the number of quarter-hour marks in a day.
const SlotsPerDay = 24 * 60 / SlotDurationMinutes

// DefaultWindowDays is the size of the rolling reservation window.
const DefaultWindowDays = 30

// TimeSlots returns the 96 quarter-hour "HH:MM" labels covering a day,
// from "00:00" through "23:45".
func TimeSlots() []string {
	out := make([]string, 0, SlotsPerDay)
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute += SlotDurationMinutes {
			out = append(out, fmt.Sprintf("%02d:%02d", hour, minute))
		}
	}
	return out
}

// FormatSlot renders a 24-hour "HH:MM" label in 12-hour display form,
// e.g. "14:15" -> "2:15 PM". Malformed labels are returned unchanged.
func FormatSlot(slot string) string {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return slot
	}
	return t.Format("3:04 PM")
}

// DateEntry is one selectable date of the rolling window.
type DateEntry struct {
	Date  time.Time `json:"date"`
	Month int       `json:"month"` // 1-12
	Day   int       `json:"day"`
}

// DateList returns count consecutive dates starting at from, carrying
// the (month, day) pair the hours resolver keys on.
func DateList(from time.Time, count int) []DateEntry {
	if count <= 0 {
		count = DefaultWindowDays
	}
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	out := make([]DateEntry, 0, count)
	for i := 0; i < count; i++ {
		d := start.AddDate(0, 0, i)
		out = append(out, DateEntry{
			Date:  d,
			Month: int(d.Month()),
			Day:   d.Day(),
		})
	}
	return out
}
