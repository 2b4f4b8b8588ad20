package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidClock is returned for strings that are not HH:MM or HH:MM:SS.
var ErrInvalidClock = errors.New("availability: invalid time of day")

// ClockTime is a slot start: a civil time of day truncated to the minute.
// Seconds and nanoseconds are always zero, so == compares slots.
type ClockTime struct {
	civil.Time
}

// Clock builds a ClockTime.
func Clock(hour, minute int) ClockTime {
	return ClockTime{civil.Time{Hour: hour, Minute: minute}}
}

// ParseClock accepts "09:30" and "09:30:00".
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if t, err := civil.ParseTime(s); err == nil && t.IsValid() {
		return Clock(t.Hour, t.Minute), nil
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return Clock(t.Hour(), t.Minute()), nil
	}
	return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// String renders 24-hour "15:04".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Label renders the 12-hour display form, e.g. "02:30 PM".
func (c ClockTime) Label() string {
	return civil.DateTime{Date: civil.Date{Year: 2000, Month: 1, Day: 1}, Time: c.Time}.In(time.UTC).Format("03:04 PM")
}

// Add shifts by whole minutes, wrapping at midnight.
func (c ClockTime) Add(minutes int) ClockTime {
	const day = 24 * 60
	total := ((c.Hour*60+c.Minute+minutes)%day + day) % day
	return Clock(total/60, total%60)
}

// Before reports whether c is earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.Time.Before(other.Time)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
