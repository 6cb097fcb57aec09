package core

import (
	"time"
)

// MonthKey is a first-of-month date key in the form "YYYY-MM-01".
type MonthKey string

const monthKeyLayout = "2006-01-02"

// ParseMonth validates and normalizes a month key. Only first-of-month
// dates are accepted.
func ParseMonth(s string) (MonthKey, error) {
	t, err := time.Parse(monthKeyLayout, s)
	if err != nil {
		return "", &ValidationError{Field: "month", Reason: "month must be in YYYY-MM-01 format"}
	}
	if t.Day() != 1 {
		return "", &ValidationError{Field: "month", Reason: "month must be a first-of-month date"}
	}
	return MonthKey(s), nil
}

// MonthOf returns the month key containing t.
func MonthOf(t time.Time) MonthKey {
	return MonthKey(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(monthKeyLayout))
}

// Bounds returns the half-open [start, next) window covered by the month.
func (m MonthKey) Bounds() (start, next time.Time) {
	t, err := time.Parse(monthKeyLayout, string(m))
	if err != nil {
		return time.Time{}, time.Time{}
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func (m MonthKey) String() string { return string(m) }
