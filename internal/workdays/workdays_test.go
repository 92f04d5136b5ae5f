package workdays

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestIsHolidayFixedDates(t *testing.T) {
	tests := []struct {
		d    time.Time
		want bool
	}{
		{date(2026, time.January, 1), true},   // Neujahr
		{date(2026, time.May, 1), true},       // Tag der Arbeit
		{date(2026, time.October, 3), true},   // Tag der Deutschen Einheit
		{date(2026, time.December, 25), true}, // 1. Weihnachtstag
		{date(2026, time.December, 26), true}, // 2. Weihnachtstag
		{date(2026, time.July, 14), false},
		{date(2026, time.December, 24), false}, // Heiligabend is not a public holiday
	}
	for _, tt := range tests {
		if got := IsHoliday(tt.d); got != tt.want {
			t.Errorf("IsHoliday(%s) = %v, want %v", tt.d.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestIsHolidayMovableFeasts(t *testing.T) {
	// Easter Sunday 2026 is April 5.
	tests := []struct {
		d    time.Time
		want bool
	}{
		{date(2026, time.April, 3), true},  // Karfreitag
		{date(2026, time.April, 6), true},  // Ostermontag
		{date(2026, time.May, 14), true},   // Christi Himmelfahrt
		{date(2026, time.May, 25), true},   // Pfingstmontag
		{date(2026, time.April, 5), false}, // Easter Sunday itself is already a Sunday
		{date(2025, time.April, 18), true}, // Karfreitag 2025 (Easter: April 20)
		{date(2025, time.April, 21), true}, // Ostermontag 2025
	}
	for _, tt := range tests {
		if got := IsHoliday(tt.d); got != tt.want {
			t.Errorf("IsHoliday(%s) = %v, want %v", tt.d.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestIsWorkday(t *testing.T) {
	if IsWorkday(date(2026, time.August, 29)) { // Saturday
		t.Error("Saturday should not be a workday")
	}
	if IsWorkday(date(2026, time.August, 30)) { // Sunday
		t.Error("Sunday should not be a workday")
	}
	if !IsWorkday(date(2026, time.August, 27)) { // Thursday
		t.Error("regular Thursday should be a workday")
	}
	if IsWorkday(date(2026, time.October, 3)) {
		t.Error("national holiday should not be a workday")
	}
}

func TestNextSkipsWeekend(t *testing.T) {
	// Friday 2026-08-28 -> Monday 2026-08-31
	got := Next(date(2026, time.August, 28))
	if got.Weekday() != time.Monday || got.Day() != 31 {
		t.Errorf("Next(Friday) = %s, want Monday 2026-08-31", got.Format("2006-01-02"))
	}
}

func TestNextSkipsHoliday(t *testing.T) {
	// Thursday 2026-12-24 -> 25th and 26th are holidays, 27th is Sunday -> Monday 28th
	got := Next(date(2026, time.December, 24))
	want := date(2026, time.December, 28)
	if got.Format("2006-01-02") != want.Format("2006-01-02") {
		t.Errorf("Next(2026-12-24) = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestAdd(t *testing.T) {
	// Monday 2026-08-24 + 4 workdays = Friday 2026-08-28
	got := Add(date(2026, time.August, 24), 4)
	if got.Weekday() != time.Friday || got.Day() != 28 {
		t.Errorf("Add(Monday, 4) = %s, want Friday 2026-08-28", got.Format("2006-01-02"))
	}

	// Starting on a Saturday normalizes to the following Monday first.
	got = Add(date(2026, time.August, 29), 0)
	if got.Weekday() != time.Monday || got.Day() != 31 {
		t.Errorf("Add(Saturday, 0) = %s, want Monday 2026-08-31", got.Format("2006-01-02"))
	}
}
