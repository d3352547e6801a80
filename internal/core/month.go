package core

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

// MonthOf returns the key for the month containing t. Zero time yields the
// empty key, which never matches a real month.
func MonthOf(t time.Time) MonthKey {
	if t.IsZero() {
		return ""
	}
	return MonthKey(t.Format("2006-01"))
}

// NewMonthKey builds a key from year and 1-based month.
func NewMonthKey(year, month int) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", year, month))
}

// Time returns midnight UTC on the first day of the month, or the zero time
// for an invalid key.
func (k MonthKey) Time() time.Time {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Valid reports whether the key parses as a real month.
func (k MonthKey) Valid() bool {
	return !k.Time().IsZero()
}

// Next returns the following month's key.
func (k MonthKey) Next() MonthKey {
	t := k.Time()
	if t.IsZero() {
		return ""
	}
	return MonthOf(t.AddDate(0, 1, 0))
}
