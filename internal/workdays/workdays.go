// Package workdays calculates German business days for prescription pick-up
// dates. Weekends and nationwide public holidays are skipped; state-specific
// holidays are not considered.
package workdays

import "time"

// IsHoliday reports whether d falls on a German nationwide public holiday.
func IsHoliday(d time.Time) bool {
	day := d.Day()
	month := d.Month()

	// Fixed-date holidays
	switch {
	case month == time.January && day == 1: // Neujahr
		return true
	case month == time.May && day == 1: // Tag der Arbeit
		return true
	case month == time.October && day == 3: // Tag der Deutschen Einheit
		return true
	case month == time.December && (day == 25 || day == 26): // Weihnachten
		return true
	}

	// Movable feasts relative to Easter Sunday
	easter := easterSunday(d.Year())
	for _, offset := range []int{-2, 1, 39, 50} { // Karfreitag, Ostermontag, Himmelfahrt, Pfingstmontag
		h := easter.AddDate(0, 0, offset)
		if h.Month() == month && h.Day() == day {
			return true
		}
	}

	return false
}

// IsWorkday reports whether d is a regular German business day
// (Monday to Friday, not a nationwide holiday).
func IsWorkday(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(d)
}

// Next returns the first workday strictly after d.
func Next(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if IsWorkday(d) {
			return d
		}
	}
}

// Add returns the date n workdays after d. With n=0 it returns d itself
// if d is a workday, otherwise the next workday.
func Add(d time.Time, n int) time.Time {
	if !IsWorkday(d) {
		d = Next(d)
	}
	for i := 0; i < n; i++ {
		d = Next(d)
	}
	return d
}

// easterSunday returns Easter Sunday for the given year using the
// anonymous Gregorian computus (Gauss algorithm variant).
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
