package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Display layouts used across dashboards
const (
	ClockLayout    = "03:04 PM"
	DayLayout      = "02 Jan 2006"
	ISODateLayout  = "2006-01-02"
	FeedTimeLayout = "Jan 02, 03:04 PM"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// The logger may not be configured yet when config is read.
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// StartOfDay returns local midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// FormatClock renders t as "03:04 PM" in loc
func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ClockLayout)
}

// FormatClockPtr is FormatClock with "-" for a missing time
func FormatClockPtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return FormatClock(*t, loc)
}
