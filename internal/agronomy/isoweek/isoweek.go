// Package isoweek provides ISO-8601 week arithmetic for the scheduling
// engine. All calendar math is done on UTC-midnight normalized dates so
// that week offsets are stable regardless of the server timezone.
package isoweek

import (
	"fmt"
	"time"
)

// InvalidWeekError indicates a week number outside the valid range for
// the given ISO year.
type InvalidWeekError struct {
	Year int
	Week int
}

func (e *InvalidWeekError) Error() string {
	return fmt.Sprintf("invalid ISO week %d for year %d (valid range 1-%d)", e.Week, e.Year, Weeks(e.Year))
}

// Midnight normalizes a time to UTC midnight of its calendar date.
// The date components are read in the time's own location, so a local
// "2025-01-06 23:30" stays January 6th.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weeks returns the number of ISO weeks in a year, 52 or 53.
// December 28th is always in the last week of its ISO year.
func Weeks(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// MondayOf returns the Monday of the given ISO week as a UTC-midnight date.
func MondayOf(year, week int) (time.Time, error) {
	if week < 1 || week > Weeks(year) {
		return time.Time{}, &InvalidWeekError{Year: year, Week: week}
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-wd)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// Of returns the ISO year and week of a date.
func Of(t time.Time) (year, week int) {
	return Midnight(t).ISOWeek()
}

// WeeksSince returns the whole number of weeks between the sowing date and
// a reference Monday. The result may be negative when the reference week
// precedes sowing. Both operands are normalized to UTC midnight before
// subtraction.
func WeeksSince(sowing, referenceMonday time.Time) int {
	days := int(Midnight(referenceMonday).Sub(Midnight(sowing)).Hours() / 24)
	return floorDiv(days, 7)
}

// IsMonday reports whether the date falls on a Monday.
func IsMonday(t time.Time) bool {
	return Midnight(t).Weekday() == time.Monday
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating integer division.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
