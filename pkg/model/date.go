package model

import "time"

// DateLayout is the wire format for calendar dates. Reservations are whole-day
// ranges; no time-of-day component is ever significant.
const DateLayout = "2006-01-02"

// Day normalizes t to UTC midnight of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a DateLayout string into a UTC-midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// DaysOverlap reports whether the closed day intervals [aStart, aEnd] and
// [bStart, bEnd] share at least one calendar day. This is the single overlap
// definition used by both the conflict check and the availability calendar.
func DaysOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// MonthBounds returns the first and last day of the given calendar month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
