package metrics

import "time"

// Window is an inclusive range of calendar days
type Window struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TrailingDays is [asOf-days, asOf]. It spans days+1 calendar days.
func TrailingDays(asOf time.Time, days int) Window {
	end := Day(asOf)
	return Window{Start: end.AddDate(0, 0, -days), End: end}
}

// MonthOf is the full calendar month containing t
func MonthOf(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, -1)}
}

// MonthsBack returns the calendar month n months before the month of t
func MonthsBack(t time.Time, n int) Window {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthOf(first.AddDate(0, -n, 0))
}

// Contains reports whether the calendar day of t falls inside w
func (w Window) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(w.Start) && !d.After(w.End)
}
