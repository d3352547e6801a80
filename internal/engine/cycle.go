// Package engine computes billing cycles, invoices and dashboard statistics
// from immutable in-memory snapshots. Everything here is deterministic and
// side-effect free: identical inputs always produce identical outputs, which
// is what makes caller-side memoization and testing safe.
package engine

import (
	"time"

	"grana/internal/core"
)

// clampClosingDay forces the closing day into [1,28]. Out-of-range values are
// clamped, never rejected: a card must always yield a well-defined cycle.
func clampClosingDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > 28 {
		return 28
	}
	return day
}

// LastClosing returns the most recent closing date at or before ref.
func LastClosing(ref time.Time, closingDay int) time.Time {
	day := clampClosingDay(closingDay)
	thisMonth := time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, ref.Location())
	if !ref.Before(thisMonth) {
		return thisMonth
	}
	return time.Date(ref.Year(), ref.Month()-1, day, 0, 0, 0, 0, ref.Location())
}

// NextClosing returns last shifted forward exactly one calendar month, on the
// same clamped day. The clamp to <=28 guarantees the day exists in every
// month, so the shift never rolls over.
func NextClosing(last time.Time, closingDay int) time.Time {
	day := clampClosingDay(closingDay)
	return time.Date(last.Year(), last.Month()+1, day, 0, 0, 0, 0, last.Location())
}

// ReferenceMonth maps a transaction or bill date to the invoice month it
// belongs to: the month of the first closing date at or after the date. A
// zero date has no cycle and yields the empty key.
func ReferenceMonth(date time.Time, closingDay int) core.MonthKey {
	if date.IsZero() {
		return ""
	}
	last := LastClosing(date, closingDay)
	if date.After(last) {
		return core.MonthOf(NextClosing(last, closingDay))
	}
	return core.MonthOf(last)
}

// CyclePeriod returns the half-open statement interval (start, end] whose
// closing date falls in the given reference month.
func CyclePeriod(month core.MonthKey, closingDay int) (start, end time.Time) {
	day := clampClosingDay(closingDay)
	first := month.Time()
	if first.IsZero() {
		return time.Time{}, time.Time{}
	}
	end = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
	start = time.Date(first.Year(), first.Month()-1, day, 0, 0, 0, 0, time.UTC)
	return start, end
}
