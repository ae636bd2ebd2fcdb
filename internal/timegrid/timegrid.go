// Package timegrid holds the calendar arithmetic for the fixed weekly grid:
// half-open interval overlap at minute resolution, ISO weekday derivation, and
// week window computation. All dates are calendar dates in the academy's fixed
// timezone; no timezone conversion happens here.
package timegrid

import (
	"time"

	"github.com/hagwon-ops/timetable-api/internal/models"
)

// Overlaps reports whether two half-open clock intervals intersect. Touching
// boundaries do not overlap.
func Overlaps(startA, endA, startB, endB models.Clock) bool {
	return startA < endB && endA > startB
}

// WeekdayOf returns the ISO weekday of a date, with Sunday mapped to 7.
func WeekdayOf(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekWindow returns the inclusive [start, start+6d] range for a week.
func WeekWindow(weekStart time.Time) (time.Time, time.Time) {
	start := DateOnly(weekStart)
	return start, start.AddDate(0, 0, 6)
}

// DateOnly truncates a timestamp to its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two timestamps fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// OccurrenceInWeek places a weekday (1=Mon..7=Sun) inside the week starting at
// weekStart, which is expected to be a Monday.
func OccurrenceInWeek(weekStart time.Time, weekday int) time.Time {
	return DateOnly(weekStart).AddDate(0, 0, weekday-1)
}
