package engine

import (
	"testing"
	"time"

	"grana/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestLastClosing(t *testing.T) {
	tests := []struct {
		name       string
		ref        time.Time
		closingDay int
		want       time.Time
	}{
		{
			name:       "before this month's closing",
			ref:        date(2024, 6, 10),
			closingDay: 15,
			want:       date(2024, 5, 15),
		},
		{
			name:       "on the closing day",
			ref:        date(2024, 6, 15),
			closingDay: 15,
			want:       date(2024, 6, 15),
		},
		{
			name:       "after this month's closing",
			ref:        date(2024, 6, 20),
			closingDay: 15,
			want:       date(2024, 6, 15),
		},
		{
			name:       "closing day 31 clamps to 28 in february",
			ref:        date(2024, 2, 20),
			closingDay: 31,
			want:       date(2024, 2, 28),
		},
		{
			name:       "closing day zero clamps to 1",
			ref:        date(2024, 6, 10),
			closingDay: 0,
			want:       date(2024, 6, 1),
		},
		{
			name:       "january ref rolls back to december",
			ref:        date(2024, 1, 5),
			closingDay: 10,
			want:       date(2023, 12, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastClosing(tt.ref, tt.closingDay)
			if !got.Equal(tt.want) {
				t.Errorf("LastClosing(%v, %d) = %v, want %v", tt.ref, tt.closingDay, got, tt.want)
			}
		})
	}
}

func TestNextClosing(t *testing.T) {
	tests := []struct {
		name       string
		last       time.Time
		closingDay int
		want       time.Time
	}{
		{
			name:       "plain month shift",
			last:       date(2024, 5, 15),
			closingDay: 15,
			want:       date(2024, 6, 15),
		},
		{
			name:       "february to march keeps clamped day",
			last:       date(2024, 2, 28),
			closingDay: 31,
			want:       date(2024, 3, 28),
		},
		{
			name:       "december wraps to january",
			last:       date(2023, 12, 10),
			closingDay: 10,
			want:       date(2024, 1, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextClosing(tt.last, tt.closingDay)
			if !got.Equal(tt.want) {
				t.Errorf("NextClosing(%v, %d) = %v, want %v", tt.last, tt.closingDay, got, tt.want)
			}
		})
	}
}

// For every valid closing day the cycle invariants must hold: lastClosing
// never exceeds the reference date, and nextClosing is exactly one calendar
// month later.
func TestCycleInvariants(t *testing.T) {
	refs := []time.Time{
		date(2024, 1, 1),
		date(2024, 2, 29),
		date(2024, 6, 10),
		date(2024, 12, 31),
	}
	for day := 1; day <= 28; day++ {
		for _, ref := range refs {
			last := LastClosing(ref, day)
			if last.After(ref) {
				t.Fatalf("LastClosing(%v, %d) = %v is after ref", ref, day, last)
			}
			next := NextClosing(last, day)
			wantNext := last.AddDate(0, 1, 0)
			if !next.Equal(wantNext) {
				t.Fatalf("NextClosing(%v, %d) = %v, want %v", last, day, next, wantNext)
			}
		}
	}
}

func TestReferenceMonth(t *testing.T) {
	tests := []struct {
		name       string
		date       time.Time
		closingDay int
		want       core.MonthKey
	}{
		{
			name:       "after closing rolls to next month",
			date:       date(2024, 6, 20),
			closingDay: 15,
			want:       core.MonthKey("2024-07"),
		},
		{
			name:       "before closing stays in month",
			date:       date(2024, 6, 10),
			closingDay: 15,
			want:       core.MonthKey("2024-06"),
		},
		{
			name:       "exactly on closing day belongs to that statement",
			date:       date(2024, 6, 15),
			closingDay: 15,
			want:       core.MonthKey("2024-06"),
		},
		{
			name:       "zero date has no cycle",
			date:       time.Time{},
			closingDay: 15,
			want:       core.MonthKey(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReferenceMonth(tt.date, tt.closingDay)
			if got != tt.want {
				t.Errorf("ReferenceMonth(%v, %d) = %q, want %q", tt.date, tt.closingDay, got, tt.want)
			}
		})
	}
}

func TestCyclePeriod(t *testing.T) {
	start, end := CyclePeriod(core.MonthKey("2024-06"), 15)
	if !start.Equal(date(2024, 5, 15)) || !end.Equal(date(2024, 6, 15)) {
		t.Errorf("CyclePeriod(2024-06, 15) = (%v, %v), want (2024-05-15, 2024-06-15)", start, end)
	}

	start, end = CyclePeriod(core.MonthKey("bogus"), 15)
	if !start.IsZero() || !end.IsZero() {
		t.Errorf("CyclePeriod with invalid month = (%v, %v), want zero times", start, end)
	}
}
