package availability

// SlotMinutes is the length of one bookable slot.
const SlotMinutes = 30

var dailySlots = []ClockTime{
	Clock(9, 0), Clock(9, 30),
	Clock(10, 0), Clock(10, 30),
	Clock(11, 0), Clock(11, 30),
	Clock(12, 0), Clock(12, 30),
	// 13:00-14:00 lunch
	Clock(14, 0), Clock(14, 30),
	Clock(15, 0), Clock(15, 30),
	Clock(16, 0), Clock(16, 30),
	Clock(17, 0), Clock(17, 30),
}

// DailySlots returns a copy of the fixed half-hour starts offered each day.
func DailySlots() []ClockTime {
	out := make([]ClockTime, len(dailySlots))
	copy(out, dailySlots)
	return out
}

// IsSlot reports whether t is one of the daily slot starts.
func IsSlot(t ClockTime) bool {
	for _, s := range dailySlots {
		if s == t {
			return true
		}
	}
	return false
}

// Slot is the client-facing form of a slot start.
type Slot struct {
	ID          string `json:"id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DisplayTime string `json:"display_time"`
}

// ToSlots renders times for the API, preserving order.
func ToSlots(times []ClockTime) []Slot {
	out := make([]Slot, 0, len(times))
	for _, t := range times {
		out = append(out, Slot{
			ID:          t.String(),
			StartTime:   t.String(),
			EndTime:     t.Add(SlotMinutes).String(),
			DisplayTime: t.Label(),
		})
	}
	return out
}
