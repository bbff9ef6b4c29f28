// Package dates holds the calendar arithmetic used by the contract cleaner:
// lenient parsing of raw date cells, interval addition and day counts.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// IntervalType represents different types of calendar intervals
type IntervalType int

const (
	IntervalDays IntervalType = iota
	IntervalMonths
	IntervalYears
)

// Interval is a signed count of calendar units.
type Interval struct {
	Value int
	Type  IntervalType
}

func (i Interval) String() string {
	var unit string
	switch i.Type {
	case IntervalDays:
		unit = "days"
	case IntervalMonths:
		unit = "months"
	case IntervalYears:
		unit = "years"
	}
	return fmt.Sprintf("interval(%d %s)", i.Value, unit)
}

// Days creates an interval representing days
func Days(n int) Interval { return Interval{Value: n, Type: IntervalDays} }

// Months creates an interval representing calendar months
func Months(n int) Interval { return Interval{Value: n, Type: IntervalMonths} }

// Years creates an interval representing calendar years
func Years(n int) Interval { return Interval{Value: n, Type: IntervalYears} }

// Add moves t by the interval. Month and year steps keep the day of month
// and clamp it to the last day of the target month, so Jan 31 + 1 month is
// Feb 28 (or 29) rather than spilling into March.
func Add(t time.Time, interval Interval) time.Time {
	switch interval.Type {
	case IntervalDays:
		return t.AddDate(0, 0, interval.Value)
	case IntervalMonths:
		return addMonths(t, interval.Value)
	case IntervalYears:
		return addMonths(t, 12*interval.Value)
	default:
		return t
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Date builds a UTC midnight date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day, keeping the calendar date in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return Date(y, m, d)
}

// DaysBetween counts whole calendar days from a to b. It is negative when b
// is before a.
func DaysBetween(a, b time.Time) int64 {
	return int64(Truncate(b).Sub(Truncate(a)) / (24 * time.Hour))
}

// Layouts accepted by Parse, tried in order.
var Layouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
}

// Parse reads a raw date cell. Blank or unrecognised text reports false, so
// callers can treat it as missing rather than failing.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Truncate(t), true
		}
	}
	return time.Time{}, false
}
