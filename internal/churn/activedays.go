package churn

import (
	"time"

	"github.com/paveg/churnprep/internal/dates"
)

// DefaultHorizon is the observation cutoff for active days.
var DefaultHorizon = dates.Date(2020, time.January, 1)

// ActiveDays counts whole days from begin to the end date, capped at horizon.
// The result is never negative.
func ActiveDays(begin time.Time, end EndDate, horizon time.Time) int64 {
	stop := end.Date
	if horizon.Before(stop) {
		stop = horizon
	}
	days := dates.DaysBetween(begin, stop)
	if days < 0 {
		return 0
	}
	return days
}
