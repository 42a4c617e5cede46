package hours

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedClock is returned for time-of-day strings that are not
// valid 24-hour "HH:MM" values. The resolver never surfaces it; callers
// that parse user input should.
var ErrMalformedClock = errors.New("malformed clock value")

// ParseClock converts a 24-hour "HH:MM" string into minutes since
// midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	return hour*60 + minute, nil
}

// WithinRange reports whether t falls inside [open, close). The opening
// boundary is inclusive and the closing boundary exclusive, so a slot
// exactly at closing time is closed. All three strings are assumed to
// share the same local reference frame as the schedule; no timezone
// conversion happens here.
func WithinRange(t, open, close string) (bool, error) {
	tm, err := ParseClock(t)
	if err != nil {
		return false, err
	}
	om, err := ParseClock(open)
	if err != nil {
		return false, err
	}
	cm, err := ParseClock(close)
	if err != nil {
		return false, err
	}
	return tm >= om && tm < cm, nil
}
