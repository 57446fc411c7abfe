package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DayHours is the weekly opening pattern for one weekday
type DayHours struct {
	IsOpen bool   `json:"is_open"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
}

// Break closes the concession for part of a day
type Break struct {
	Day   int    `json:"day"` // 0 = Monday
	Start string `json:"start"`
	End   string `json:"end"`
}

// SpecialDate overrides the weekly pattern for one calendar date
type SpecialDate struct {
	Date   string `json:"date"` // YYYY-MM-DD
	IsOpen bool   `json:"is_open"`
	Reason string `json:"reason,omitempty"`
}

// ConcessionSchedule is a vendor's opening hours
type ConcessionSchedule struct {
	Days         [7]DayHours   `json:"days"`
	Breaks       []Break       `json:"breaks,omitempty"`
	SpecialDates []SpecialDate `json:"special_dates,omitempty"`
}

// Hours returns the weekly pattern for the weekday of t
func (c ConcessionSchedule) Hours(t time.Time) DayHours {
	return c.Days[DayIndex(t)]
}

// SpecialDateFor returns the override for t's calendar date, if any
func (c ConcessionSchedule) SpecialDateFor(t time.Time) (SpecialDate, bool) {
	key := t.Format(dateLayout)
	for _, sd := range c.SpecialDates {
		if sd.Date == key {
			return sd, true
		}
	}
	return SpecialDate{}, false
}

// ClosedOn reports whether a special date closes the concession on t's date
func (c ConcessionSchedule) ClosedOn(t time.Time) bool {
	sd, ok := c.SpecialDateFor(t)
	return ok && !sd.IsOpen
}

// IsConcessionOpenNow applies the manual open flag, then the special date,
// then the weekly pattern with an inclusive [open, close] range.
func IsConcessionOpenNow(isOpen bool, schedule ConcessionSchedule, now time.Time) bool {
	if !isOpen {
		return false
	}

	if sd, ok := schedule.SpecialDateFor(now); ok && !sd.IsOpen {
		return false
	}

	hours := schedule.Hours(now)
	if !hours.IsOpen || hours.Open == "" || hours.Close == "" {
		return false
	}

	open, err := ParseTimeOfDay(hours.Open)
	if err != nil {
		return false
	}
	closeAt, err := ParseTimeOfDay(hours.Close)
	if err != nil {
		return false
	}

	current := MinuteOfDay(now)
	return current >= open && current <= closeAt
}

// InBreak reports whether t falls inside one of the weekday's breaks
func InBreak(schedule ConcessionSchedule, t time.Time) bool {
	day := DayIndex(t)
	current := MinuteOfDay(t)

	for _, b := range schedule.Breaks {
		if b.Day != day {
			continue
		}
		start, err := ParseTimeOfDay(b.Start)
		if err != nil {
			continue
		}
		end, err := ParseTimeOfDay(b.End)
		if err != nil {
			continue
		}
		if current >= start && current < end {
			return true
		}
	}
	return false
}

// ParseTimeOfDay converts "HH:MM" or "HH:MM:SS" into minutes after midnight
func ParseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}

	return h*60 + m, nil
}

// MinuteOfDay returns minutes after local midnight for t
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
