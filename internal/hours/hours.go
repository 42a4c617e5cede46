// Package hours decides whether the store is open at a given date and
// time slot, merging the recurring weekly schedule with date-specific
// overrides. Everything here is pure computation over immutable
// snapshots; the policy is fail-closed: the store is presumed closed
// unless an entry affirmatively proves it open.
package hours

import (
	"fmt"
)

// OpenState is the explicit tri-state behind the optional "is_open"
// field of the remote payloads. A missing field decodes to Unspecified,
// which is distinct from Closed: unspecified weekly entries are
// excluded from resolution entirely.
type OpenState int

const (
	Unspecified OpenState = iota
	Open
	Closed
)

// UnmarshalJSON maps true/false/null onto the tri-state.
func (s *OpenState) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true":
		*s = Open
	case "false":
		*s = Closed
	case "null":
		*s = Unspecified
	default:
		return fmt.Errorf("is_open: expected boolean, got %s", b)
	}
	return nil
}

// MarshalJSON emits null for Unspecified so round-tripped payloads keep
// the field optional.
func (s OpenState) MarshalJSON() ([]byte, error) {
	switch s {
	case Open:
		return []byte("true"), nil
	case Closed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (s OpenState) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unspecified"
	}
}

// WeeklyEntry is one row of the recurring weekly schedule. A day of
// week may carry several entries (split shifts). An Open entry with no
// time bounds means open all day.
type WeeklyEntry struct {
	DayOfWeek int       `json:"day_of_week"` // 0-6, 0 = Sunday
	Open      OpenState `json:"is_open"`
	StartTime string    `json:"start_time,omitempty"` // "HH:MM"
	EndTime   string    `json:"end_time,omitempty"`   // "HH:MM"
}

// Override is a date-specific exception that supersedes the weekly
// schedule for that calendar date. Overrides are year-agnostic: the
// (month, day) pair is resolved against the current year, which is an
// accepted approximation around year boundaries and Feb 29.
type Override struct {
	Month     int       `json:"month"` // 1-12
	Day       int       `json:"day"`   // 1-31
	Open      OpenState `json:"is_open"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
}

// Key returns the "{month}-{day}" key overrides are cached under.
func (o Override) Key() string {
	return fmt.Sprintf("%d-%d", o.Month, o.Day)
}
