// internal/domain/recurrence/occurrence.go
package recurrence

import "time"

// occurrence returns the nth (0-based) occurrence of a schedule anchored at start.
// Month-based steps are always taken from the anchor, so a clamped month end
// (Jan 31 -> Feb 29) does not drift into later months (-> Mar 31).
func (f Frequency) occurrence(start time.Time, n int) time.Time {
	if days := f.stepDays(); days > 0 {
		return start.AddDate(0, 0, n*days)
	}
	if months := f.stepMonths(); months > 0 {
		return addMonthsClamped(start, n*months)
	}
	return start
}

// firstIndexAfter returns the index of the first occurrence strictly after after.
func (f Frequency) firstIndexAfter(start, after time.Time) int {
	if after.Before(start) {
		return 0
	}
	if !f.Recurring() {
		return 1
	}

	var n int
	if days := f.stepDays(); days > 0 {
		n = int((dayNumber(after)-dayNumber(start))/int64(days)) + 1
	} else {
		sy, sm, _ := start.Date()
		ay, am, _ := after.Date()
		n = ((ay-sy)*12 + int(am-sm)) / f.stepMonths()
	}
	for n > 0 && f.occurrence(start, n-1).After(after) {
		n--
	}
	for !f.occurrence(start, n).After(after) {
		n++
	}
	return n
}

// DueDates returns, in order, the occurrences of the schedule (start, freq, end) that
// are due as of asOf and come strictly after lastProcessed. A nil lastProcessed means
// nothing has been materialized yet and the first candidate is start itself.
// The asOf and end bounds are inclusive at day granularity. Dates are compared as
// calendar days in asOf's location; the returned dates live in that location too.
func DueDates(start time.Time, freq Frequency, lastProcessed *time.Time, end *time.Time, asOf time.Time) []time.Time {
	if !freq.Valid() || start.IsZero() {
		return nil
	}
	loc := asOf.Location()
	start = civilIn(start, loc)
	limit := DateOf(asOf)
	if end != nil {
		if e := civilIn(*end, loc); e.Before(limit) {
			limit = e
		}
	}

	n := 0
	if lastProcessed != nil {
		n = freq.firstIndexAfter(start, civilIn(*lastProcessed, loc))
	}

	var due []time.Time
	for ; freq.Recurring() || n == 0; n++ {
		candidate := freq.occurrence(start, n)
		if candidate.After(limit) {
			break
		}
		due = append(due, candidate)
	}
	return due
}

// NextAfter returns the first occurrence strictly after the given date, or false when
// the schedule has no further occurrence before end. The result is in after's location.
func NextAfter(start time.Time, freq Frequency, after time.Time, end *time.Time) (time.Time, bool) {
	if !freq.Valid() || start.IsZero() {
		return time.Time{}, false
	}
	loc := after.Location()
	start = civilIn(start, loc)
	n := freq.firstIndexAfter(start, DateOf(after))
	if !freq.Recurring() && n > 0 {
		return time.Time{}, false
	}
	next := freq.occurrence(start, n)
	if end != nil && next.After(civilIn(*end, loc)) {
		return time.Time{}, false
	}
	return next, true
}
