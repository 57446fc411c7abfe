package schedule

import (
	"testing"
	"time"

	"canteen/internal/availability"
)

// 2026-10-12 is a Monday
func at(day int, hour, minute int) time.Time {
	return time.Date(2026, 10, 12+day, hour, minute, 0, 0, time.UTC)
}

func weekdays(open, close string) availability.ConcessionSchedule {
	var s availability.ConcessionSchedule
	for i := 0; i < 5; i++ {
		s.Days[i] = availability.DayHours{IsOpen: true, Open: open, Close: close}
	}
	return s
}

func TestCommonAvailableDays_Intersects(t *testing.T) {
	a := availability.WeekSchedule{true, true, false, true, true, true, true}
	b := availability.WeekSchedule{true, false, true, true, true, true, false}

	got := CommonAvailableDays(a, b)
	want := availability.WeekSchedule{true, false, false, true, true, true, false}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if CommonAvailableDays() != availability.AllDays() {
		t.Fatal("no schedules should leave every day enabled")
	}
}

func TestValidWindows(t *testing.T) {
	c := weekdays("09:00", "21:00")
	c.SpecialDates = []availability.SpecialDate{{Date: "2026-10-14", IsOpen: false, Reason: "inventory"}}
	item := availability.WeekSchedule{true, true, true, false, true, true, true}

	windows := ValidWindows(c, []availability.WeekSchedule{item}, at(0, 15, 0), 7)

	var dates []string
	for _, w := range windows {
		dates = append(dates, w.Date)
	}
	// wed closed by special date, thu not served, weekend closed
	want := []string{"2026-10-12", "2026-10-13", "2026-10-16"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	}
	if windows[0].OpenTime != "09:00" || windows[0].IsOvernight {
		t.Fatalf("unexpected window %+v", windows[0])
	}
}

func TestValidWindows_SkipsDaysWithoutHours(t *testing.T) {
	var c availability.ConcessionSchedule
	c.Days[0] = availability.DayHours{IsOpen: true, Open: "09:00"}

	if got := ValidWindows(c, nil, at(0, 0, 0), 7); len(got) != 0 {
		t.Fatalf("expected no windows, got %+v", got)
	}
}

func TestIsValidScheduledDateTime(t *testing.T) {
	c := weekdays("09:00", "21:00")
	c.Breaks = []availability.Break{{Day: 1, Start: "14:00", End: "15:00"}}

	cases := []struct {
		name      string
		candidate time.Time
		want      bool
	}{
		{"inside", at(1, 12, 0), true},
		{"at opening", at(1, 9, 0), true},
		{"at closing", at(1, 21, 0), true},
		{"before opening", at(1, 8, 59), false},
		{"on break", at(1, 14, 30), false},
		{"break end", at(1, 15, 0), true},
		{"saturday", at(5, 12, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidScheduledDateTime(tc.candidate, c, nil); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsValidScheduledDateTime_Overnight(t *testing.T) {
	c := weekdays("18:00", "02:00")

	windows := ValidWindows(c, nil, at(0, 0, 0), 1)
	if len(windows) != 1 || !windows[0].IsOvernight {
		t.Fatalf("expected one overnight window, got %+v", windows)
	}

	if !IsValidScheduledDateTime(at(1, 23, 0), c, nil) {
		t.Fatal("23:00 should be inside 18:00-02:00")
	}
	if !IsValidScheduledDateTime(at(1, 1, 30), c, nil) {
		t.Fatal("01:30 should be inside 18:00-02:00")
	}
	if IsValidScheduledDateTime(at(1, 12, 0), c, nil) {
		t.Fatal("12:00 should be outside 18:00-02:00")
	}
}

func TestIsValidScheduledDateTime_ItemNotServed(t *testing.T) {
	c := weekdays("09:00", "21:00")
	item := availability.WeekSchedule{true, false, true, true, true, true, true}

	if err := CheckScheduledDateTime(at(1, 12, 0), c, []availability.WeekSchedule{item}); err != ErrDayUnavailable {
		t.Fatalf("expected ErrDayUnavailable, got %v", err)
	}
}

func TestCheckOrderNow_ClosingBuffer(t *testing.T) {
	c := weekdays("09:00", "21:00")
	buffer := 30 * time.Minute

	if err := CheckOrderNow(true, c, nil, at(0, 20, 55), buffer); err != ErrClosingSoon {
		t.Fatalf("expected ErrClosingSoon at 20:55, got %v", err)
	}

	if err := CheckOrderNow(true, c, nil, at(0, 20, 30), buffer); err != nil {
		t.Fatalf("expected 20:30 accepted, got %v", err)
	}

	next := ValidWindows(c, nil, at(1, 0, 0), 7)[0]
	if next.Date != "2026-10-13" {
		t.Fatalf("expected tuesday as next window, got %s", next.Date)
	}
	if !IsValidScheduledDateTime(at(1, 12, 0), c, nil) {
		t.Fatal("a slot on the next available day must be accepted")
	}
}

func TestCheckOrderNow_Closed(t *testing.T) {
	c := weekdays("09:00", "21:00")

	if err := CheckOrderNow(false, c, nil, at(0, 12, 0), 0); err != ErrConcessionClosed {
		t.Fatalf("manual flag: expected ErrConcessionClosed, got %v", err)
	}
	if err := CheckOrderNow(true, c, nil, at(0, 22, 0), 0); err != ErrConcessionClosed {
		t.Fatalf("after hours: expected ErrConcessionClosed, got %v", err)
	}

	c.SpecialDates = []availability.SpecialDate{{Date: "2026-10-12", IsOpen: false}}
	if err := CheckOrderNow(true, c, nil, at(0, 12, 0), 0); err != ErrConcessionClosed {
		t.Fatalf("special date: expected ErrConcessionClosed, got %v", err)
	}
}

func TestCheckOrderNow_Overnight(t *testing.T) {
	c := weekdays("18:00", "02:00")

	if err := CheckOrderNow(true, c, nil, at(1, 23, 0), 30*time.Minute); err != nil {
		t.Fatalf("expected 23:00 accepted, got %v", err)
	}
	if err := CheckOrderNow(true, c, nil, at(1, 1, 45), 30*time.Minute); err != ErrClosingSoon {
		t.Fatalf("expected ErrClosingSoon at 01:45, got %v", err)
	}
}
