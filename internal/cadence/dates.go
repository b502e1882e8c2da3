// Package cadence derives contact recency, meeting cadence and sentiment trend
// points from a member's meeting history. Every function here is pure: no I/O,
// no shared state, safe to call from any number of goroutines.
package cadence

import "time"

const secondsPerDay = 24 * 60 * 60

// EpochDay returns the number of days between 1970-01-01 and the calendar date
// of t, read in t's own location.
func EpochDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}

// DateOf returns midnight UTC of t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FromEpochDay is the inverse of EpochDay. The result is midnight in loc.
func FromEpochDay(day int64, loc *time.Location) time.Time {
	utc := time.Unix(day*secondsPerDay, 0).UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(EpochDay(b) - EpochDay(a))
}
