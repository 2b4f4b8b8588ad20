// Package availability computes which daily slots are still open.
//
// Collisions are exact start-time matches only; service duration is not
// considered.
package availability

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
)

// ReservationSource reports slot starts already held on a date by bookings
// in a slot-holding status (pending or confirmed).
type ReservationSource interface {
	ReservedTimes(ctx context.Context, date civil.Date) ([]ClockTime, error)
}

// Checker answers availability queries against a ReservationSource.
type Checker struct {
	source ReservationSource
}

func NewChecker(source ReservationSource) *Checker {
	if source == nil {
		panic("availability: reservation source required")
	}
	return &Checker{source: source}
}

// Available returns the daily slots not reserved on date, in slot order.
// A nil date yields the full list.
func (c *Checker) Available(ctx context.Context, date *civil.Date) ([]ClockTime, error) {
	if date == nil {
		return DailySlots(), nil
	}
	reserved, err := c.source.ReservedTimes(ctx, *date)
	if err != nil {
		return nil, fmt.Errorf("availability: reserved times for %s: %w", date, err)
	}
	taken := make(map[ClockTime]struct{}, len(reserved))
	for _, t := range reserved {
		taken[t] = struct{}{}
	}
	out := make([]ClockTime, 0, len(dailySlots))
	for _, slot := range dailySlots {
		if _, ok := taken[slot]; !ok {
			out = append(out, slot)
		}
	}
	return out, nil
}

// IsAvailable reports whether t is still open on date.
func (c *Checker) IsAvailable(ctx context.Context, date civil.Date, t ClockTime) (bool, error) {
	open, err := c.Available(ctx, &date)
	if err != nil {
		return false, err
	}
	for _, slot := range open {
		if slot == t {
			return true, nil
		}
	}
	return false, nil
}
