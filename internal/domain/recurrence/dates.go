// internal/domain/recurrence/dates.go
package recurrence

import "time"

// DateOf truncates t to midnight at the start of its local day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// civilIn reads the calendar date of t and places it at midnight in loc without
// converting the instant. Stored dates are calendar days, not instants.
func civilIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// addMonthsClamped moves anchor forward by n calendar months keeping the anchor's
// day of month, clamped to the last day of the target month.
func addMonthsClamped(anchor time.Time, n int) time.Time {
	y, m, d := anchor.Date()
	total := int(m) - 1 + n
	y += total / 12
	month := time.Month(total%12 + 1)
	if last := daysIn(y, month, anchor.Location()); d > last {
		d = last
	}
	return time.Date(y, month, d, 0, 0, 0, 0, anchor.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// dayNumber is a DST-free day count used for day-based step arithmetic.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
