package schedule

import (
	"errors"
	"time"

	"canteen/internal/availability"
)

const dateLayout = "2006-01-02"

var (
	ErrConcessionClosed = errors.New("concession is closed")
	ErrDayUnavailable   = errors.New("not every selected item is served on that day")
	ErrOutsideHours     = errors.New("time is outside opening hours")
	ErrOnBreak          = errors.New("concession is on a break at that time")
	ErrClosingSoon      = errors.New("concession is about to close")
)

// Window is one calendar day on which an order can be placed
type Window struct {
	Date        string `json:"date"`
	OpenTime    string `json:"open_time"`
	CloseTime   string `json:"close_time"`
	IsOvernight bool   `json:"is_overnight"`

	open, close int
}

// Contains applies the window's time rule to a minute of the day.
// Overnight windows roll past midnight.
func (w Window) Contains(minute int) bool {
	if w.IsOvernight {
		return minute >= w.open || minute <= w.close
	}
	return minute >= w.open && minute <= w.close
}

// minutesLeft is how long until the window closes, from minute
func (w Window) minutesLeft(minute int) int {
	if w.IsOvernight && minute >= w.open {
		return w.close + 24*60 - minute
	}
	return w.close - minute
}

// CommonAvailableDays intersects the schedules. A day survives only if
// every schedule enables it.
func CommonAvailableDays(schedules ...availability.WeekSchedule) availability.WeekSchedule {
	out := availability.AllDays()
	for _, s := range schedules {
		for i := range out {
			out[i] = out[i] && s[i]
		}
	}
	return out
}

// ValidWindows lists the windows for the next horizonDays calendar days
// starting on start's date.
func ValidWindows(
	concession availability.ConcessionSchedule,
	itemSchedules []availability.WeekSchedule,
	start time.Time,
	horizonDays int,
) []Window {

	common := CommonAvailableDays(itemSchedules...)
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	var out []Window
	for i := 0; i < horizonDays; i++ {
		if w, ok := windowOn(concession, common, day.AddDate(0, 0, i)); ok {
			out = append(out, w)
		}
	}
	return out
}

func windowOn(concession availability.ConcessionSchedule, common availability.WeekSchedule, day time.Time) (Window, bool) {
	idx := availability.DayIndex(day)
	if !common[idx] {
		return Window{}, false
	}
	if concession.ClosedOn(day) {
		return Window{}, false
	}

	hours := concession.Days[idx]
	if !hours.IsOpen || hours.Open == "" || hours.Close == "" {
		return Window{}, false
	}

	open, err := availability.ParseTimeOfDay(hours.Open)
	if err != nil {
		return Window{}, false
	}
	closeAt, err := availability.ParseTimeOfDay(hours.Close)
	if err != nil {
		return Window{}, false
	}

	return Window{
		Date:        day.Format(dateLayout),
		OpenTime:    hours.Open,
		CloseTime:   hours.Close,
		IsOvernight: closeAt <= open,
		open:        open,
		close:       closeAt,
	}, true
}

// CheckScheduledDateTime explains why candidate cannot be used as a
// pickup time, or returns nil.
func CheckScheduledDateTime(
	candidate time.Time,
	concession availability.ConcessionSchedule,
	itemSchedules []availability.WeekSchedule,
) error {

	idx := availability.DayIndex(candidate)
	if !CommonAvailableDays(itemSchedules...)[idx] {
		return ErrDayUnavailable
	}

	w, ok := windowOn(concession, availability.AllDays(), candidate)
	if !ok {
		return ErrConcessionClosed
	}
	if !w.Contains(availability.MinuteOfDay(candidate)) {
		return ErrOutsideHours
	}
	if availability.InBreak(concession, candidate) {
		return ErrOnBreak
	}
	return nil
}

func IsValidScheduledDateTime(
	candidate time.Time,
	concession availability.ConcessionSchedule,
	itemSchedules []availability.WeekSchedule,
) bool {
	return CheckScheduledDateTime(candidate, concession, itemSchedules) == nil
}

// CheckOrderNow decides whether an immediate order can be accepted.
// Orders within buffer of closing time are refused.
func CheckOrderNow(
	isOpen bool,
	concession availability.ConcessionSchedule,
	itemSchedules []availability.WeekSchedule,
	now time.Time,
	buffer time.Duration,
) error {

	if !isOpen {
		return ErrConcessionClosed
	}

	err := CheckScheduledDateTime(now, concession, itemSchedules)
	if err != nil {
		if errors.Is(err, ErrOutsideHours) {
			return ErrConcessionClosed
		}
		return err
	}

	w, _ := windowOn(concession, availability.AllDays(), now)
	if !w.IsOvernight && !availability.IsConcessionOpenNow(isOpen, concession, now) {
		return ErrConcessionClosed
	}

	left := time.Duration(w.minutesLeft(availability.MinuteOfDay(now))) * time.Minute
	if left < buffer {
		return ErrClosingSoon
	}
	return nil
}
