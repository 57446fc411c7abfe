package availability

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Status is the customer-facing availability of a menu item or option
type Status string

const (
	StatusAvailable      Status = "available"
	StatusNotServedToday Status = "not_served_today"
	StatusOutOfStock     Status = "out_of_stock"
)

// DayNames are the schedule keys, Monday first
var DayNames = [7]string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// WeekSchedule holds one flag per weekday, index 0 = Monday
type WeekSchedule [7]bool

// AllDays is the schedule used when an item has none configured
func AllDays() WeekSchedule {
	return WeekSchedule{true, true, true, true, true, true, true}
}

// DayIndex maps a time to its Monday-first weekday index
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// NormalizeSchedule fills missing days with true
func NormalizeSchedule(raw map[string]bool) WeekSchedule {
	s := AllDays()
	for i, name := range DayNames {
		if v, ok := raw[name]; ok {
			s[i] = v
		}
	}
	return s
}

// ParseSchedule decodes a stored schedule. Both the day-name object and
// the positional array forms are accepted; empty input means every day.
func ParseSchedule(data []byte) (WeekSchedule, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return AllDays(), nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var days []*bool
		if err := json.Unmarshal(data, &days); err != nil {
			return WeekSchedule{}, err
		}
		if len(days) > 7 {
			return WeekSchedule{}, errors.New("schedule has more than 7 days")
		}
		raw := make(map[string]bool, len(days))
		for i, d := range days {
			if d != nil {
				raw[DayNames[i]] = *d
			}
		}
		return NormalizeSchedule(raw), nil
	}

	var raw map[string]bool
	if err := json.Unmarshal(data, &raw); err != nil {
		return WeekSchedule{}, err
	}
	lowered := make(map[string]bool, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}
	return NormalizeSchedule(lowered), nil
}

func (s WeekSchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, 7)
	for i, name := range DayNames {
		out[name] = s[i]
	}
	return json.Marshal(out)
}

func (s *WeekSchedule) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSchedule(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// AnyDay reports whether at least one weekday is enabled
func (s WeekSchedule) AnyDay() bool {
	for _, on := range s {
		if on {
			return true
		}
	}
	return false
}

// ServedOn reports whether the weekday of t is enabled
func (s WeekSchedule) ServedOn(t time.Time) bool {
	return s[DayIndex(t)]
}

// GetAvailabilityStatus resolves an item's status for the reference date.
// Day gating always wins over the manual stock flag.
func GetAvailabilityStatus(schedule WeekSchedule, inStock bool, ref time.Time) Status {
	if !schedule.AnyDay() {
		return StatusNotServedToday
	}
	if !schedule.ServedOn(ref) {
		return StatusNotServedToday
	}
	if !inStock {
		return StatusOutOfStock
	}
	return StatusAvailable
}
