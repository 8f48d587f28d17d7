package loan

import "time"

// dateOnly truncates t to midnight of its calendar date in loc. Overdue
// checks compare dates, never times of day.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysLate returns how many whole calendar days now is past due in loc.
// Zero when the due date has not passed.
func daysLate(now, due time.Time, loc *time.Location) int {
	diff := dateOnly(now, loc).Sub(dateOnly(due, loc))
	if diff <= 0 {
		return 0
	}
	return int(diff / (24 * time.Hour))
}

// pastDue reports whether now is strictly past the due date, date-only.
func pastDue(now, due time.Time, loc *time.Location) bool {
	return dateOnly(now, loc).After(dateOnly(due, loc))
}
