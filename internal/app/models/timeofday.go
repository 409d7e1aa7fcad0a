package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TimeOfDay is a wall-clock time stored as seconds since midnight.
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// NewTimeOfDay builds a TimeOfDay from hour, minute and second.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// TimeOfDayOf returns the wall-clock part of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// MustTimeOfDay is ParseTimeOfDay for constants.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return (int(t) % 3600) / 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

// SameMinute compares hour and minute only.
func (t TimeOfDay) SameMinute(o TimeOfDay) bool {
	return t.Hour() == o.Hour() && t.Minute() == o.Minute()
}

// Add shifts t by d, wrapping around midnight.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	s := (int(t) + int(d/time.Second)) % secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return TimeOfDay(s)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// MarshalJSON renders "HH:MM:SS".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Pg converts to the pgx TIME representation.
func (t TimeOfDay) Pg() pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 1_000_000, Valid: true}
}

// TimeOfDayFromPg converts a scanned TIME column, using def for NULL.
func TimeOfDayFromPg(v pgtype.Time, def TimeOfDay) TimeOfDay {
	if !v.Valid {
		return def
	}
	return TimeOfDay(v.Microseconds / 1_000_000)
}
