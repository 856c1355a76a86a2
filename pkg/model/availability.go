package model

import "time"

// DayAvailability is one calendar day of a unit's availability view. It is
// derived from active reservations and deliberately carries no requester
// identifiers.
type DayAvailability struct {
	Date    string `json:"date"`
	Blocked bool   `json:"blocked"`
}

// MonthAvailability is the calendar view returned for a unit and month.
type MonthAvailability struct {
	UnitID string            `json:"unit_id"`
	Year   int               `json:"year"`
	Month  int               `json:"month"`
	Days   []DayAvailability `json:"days"`
}

// BuildMonthAvailability expands active reservations into one entry per day of
// the month. A day is blocked iff it falls inside any active reservation's
// closed interval.
func BuildMonthAvailability(unitID string, year int, month time.Month, active []*Reservation) *MonthAvailability {
	first, last := MonthBounds(year, month)
	days := make([]DayAvailability, 0, last.Day())

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		blocked := false
		for _, r := range active {
			if r.Covers(day) {
				blocked = true
				break
			}
		}
		days = append(days, DayAvailability{
			Date:    day.Format(DateLayout),
			Blocked: blocked,
		})
	}

	return &MonthAvailability{
		UnitID: unitID,
		Year:   year,
		Month:  int(month),
		Days:   days,
	}
}
