package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 2*time.Hour, ParseDuration("2h", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC is already the next day in IST
	ts := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	got := StartOfDay(ts, loc)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), got)
}

func TestFormatClock(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	ts := time.Date(2024, 3, 10, 14, 5, 0, 0, time.UTC)

	assert.Equal(t, "03:05 PM", FormatClock(ts, loc))
	assert.Equal(t, "03:05 PM", FormatClockPtr(&ts, loc))
	assert.Equal(t, "-", FormatClockPtr(nil, loc))
}
