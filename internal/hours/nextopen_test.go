package hours

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func everyDayFrom(start string) []WeeklyEntry {
	entries := make([]WeeklyEntry, 0, 7)
	for dow := 0; dow < 7; dow++ {
		entries = append(entries, WeeklyEntry{DayOfWeek: dow, Open: Open, StartTime: start, EndTime: "17:00"})
	}
	return entries
}

func TestNextOpeningSameDay(t *testing.T) {
	schedule := everyDayFrom("09:00")
	ref := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC) // Sunday 08:00

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningAfterTodayOpening(t *testing.T) {
	schedule := everyDayFrom("09:00")
	ref := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC) // past 09:00

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningExactlyAtOpeningIsNotFuture(t *testing.T) {
	schedule := everyDayFrom("09:00")
	ref := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningPicksEarliestSameDayCandidate(t *testing.T) {
	// Entry order must not matter: the minimum is taken explicitly.
	schedule := []WeeklyEntry{
		{DayOfWeek: 0, Open: Open, StartTime: "15:00", EndTime: "18:00"},
		{DayOfWeek: 0, Open: Open, StartTime: "11:00", EndTime: "13:00"},
	}
	ref := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 1, 11, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningSkipsClosedDays(t *testing.T) {
	// Open only on Wednesdays (dow 3); reference is Sunday.
	schedule := []WeeklyEntry{
		{DayOfWeek: 3, Open: Open, StartTime: "10:00", EndTime: "16:00"},
		{DayOfWeek: 0, Open: Closed},
	}
	ref := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningEntryWithoutStartOpensAtMidnight(t *testing.T) {
	schedule := []WeeklyEntry{
		{DayOfWeek: 1, Open: Open}, // Mondays, all day
	}
	ref := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC) // Sunday

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningEarliestOnForwardDay(t *testing.T) {
	schedule := []WeeklyEntry{
		{DayOfWeek: 1, Open: Open, StartTime: "14:00", EndTime: "18:00"},
		{DayOfWeek: 1, Open: Open, StartTime: "08:00", EndTime: "12:00"},
	}
	ref := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningNeverOpen(t *testing.T) {
	_, ok := NextOpening(nil, time.Now())
	assert.False(t, ok)

	_, ok = NextOpening([]WeeklyEntry{}, time.Now())
	assert.False(t, ok)

	closedAllWeek := make([]WeeklyEntry, 0, 7)
	for dow := 0; dow < 7; dow++ {
		closedAllWeek = append(closedAllWeek, WeeklyEntry{DayOfWeek: dow, Open: Closed, StartTime: "09:00", EndTime: "17:00"})
	}
	_, ok = NextOpening(closedAllWeek, time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestNextOpeningTodayOpenEntryWithoutStartDoesNotQualify(t *testing.T) {
	// A same-day all-day entry has no future opening instant; the search
	// moves to the next week's occurrence.
	schedule := []WeeklyEntry{{DayOfWeek: 0, Open: Open}}
	ref := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC) // Sunday

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC), next)
}

func TestNextOpeningDSTSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	schedule := everyDayFrom("09:00")
	// 2026-03-08 is the spring-forward day; 02:00 EST jumps to 03:00 EDT.
	// The opening must stay at wall-clock 09:00, not drift to 10:00 EDT.
	ref := time.Date(2026, time.March, 8, 1, 0, 0, 0, loc)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 8, 9, 0, 0, 0, loc), next)
	assert.Equal(t, 9, next.Hour())
}

func TestNextOpeningDSTSpringForwardScannedDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	schedule := everyDayFrom("09:00")
	// Saturday after opening; the scan lands on the spring-forward Sunday.
	ref := time.Date(2026, time.March, 7, 10, 0, 0, 0, loc)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 8, 9, 0, 0, 0, loc), next)
	assert.Equal(t, 9, next.Hour())
}

func TestNextOpeningDSTFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	schedule := everyDayFrom("09:00")
	// 2026-11-01 repeats the 01:00 hour; wall-clock 09:00 must hold.
	ref := time.Date(2026, time.November, 1, 0, 30, 0, 0, loc)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.November, 1, 9, 0, 0, 0, loc), next)
	assert.Equal(t, 9, next.Hour())
}

func TestNextOpeningPreservesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	schedule := everyDayFrom("09:00")
	ref := time.Date(2026, time.March, 1, 8, 0, 0, 0, loc)

	next, ok := NextOpening(schedule, ref)
	require.True(t, ok)
	assert.Equal(t, loc, next.Location())
	assert.Equal(t, 9, next.Hour())
}
