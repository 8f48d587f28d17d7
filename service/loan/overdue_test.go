package loan

import (
	"testing"
	"time"
)

var ict = time.FixedZone("ICT", 7*3600)

func TestDaysLate(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, ict)

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"on the due date", time.Date(2024, 1, 10, 23, 59, 0, 0, ict), 0},
		{"before due", time.Date(2024, 1, 5, 9, 0, 0, 0, ict), 0},
		{"one day late", time.Date(2024, 1, 11, 0, 0, 1, 0, ict), 1},
		{"three days late", time.Date(2024, 1, 13, 8, 30, 0, 0, ict), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := daysLate(tc.now, due, ict); got != tc.want {
				t.Fatalf("daysLate(%v) = %d; want %d", tc.now, got, tc.want)
			}
		})
	}
}

func TestDaysLate_TimeOfDayIrrelevant(t *testing.T) {
	// A due date stored with a late timestamp still counts as that calendar
	// day; returning early the next morning is one day late, not zero.
	due := time.Date(2024, 1, 10, 22, 0, 0, 0, ict)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, ict)

	if got := daysLate(now, due, ict); got != 1 {
		t.Fatalf("got %d; want 1", got)
	}
}

func TestDaysLate_ZoneMatters(t *testing.T) {
	// 2024-01-11 01:00 ICT is still 2024-01-10 in UTC.
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, ict)
	now := time.Date(2024, 1, 11, 1, 0, 0, 0, ict)

	if got := daysLate(now, due, ict); got != 1 {
		t.Fatalf("in ICT got %d; want 1", got)
	}
	if got := daysLate(now, due, time.UTC); got != 0 {
		t.Fatalf("in UTC got %d; want 0", got)
	}
}

func TestPastDue(t *testing.T) {
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, ict)

	if pastDue(time.Date(2024, 1, 10, 23, 0, 0, 0, ict), due, ict) {
		t.Fatal("due date itself should not be past due")
	}
	if !pastDue(time.Date(2024, 1, 11, 0, 30, 0, 0, ict), due, ict) {
		t.Fatal("the day after should be past due")
	}
}
