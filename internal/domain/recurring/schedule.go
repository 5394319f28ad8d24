package recurring

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"nexus/internal/domain/transaction"
)

// NextRun returns the first run date after from.
//
// Monthly and yearly schedules keep the day of month of from. When that day
// does not exist in the target month the last day of the month is used, so
// Jan 31 runs on Feb 28 (or 29) and a Feb 29 yearly template runs on Feb 28.
// Each step starts from the stored date, which means a clamped schedule stays
// on the clamped day afterwards (Jan 31, Feb 28, Mar 28).
func NextRun(freq Frequency, from time.Time) (time.Time, error) {
	start := transaction.StartOfDay(from)

	opt := rrule.ROption{Dtstart: start}
	switch freq {
	case FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		opt.Bymonthday, opt.Bysetpos = clampedDays(start.Day())
	case FrequencyYearly:
		opt.Freq = rrule.YEARLY
		opt.Bymonth = []int{int(start.Month())}
		opt.Bymonthday, opt.Bysetpos = clampedDays(start.Day())
	default:
		return time.Time{}, ErrInvalidFrequency
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build recurrence rule: %w", err)
	}

	next := rule.After(start, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no run date after %s", start.Format(time.DateOnly))
	}
	return transaction.StartOfDay(next), nil
}

// clampedDays selects day in months that have it and the month's last day in
// months that do not. Days up to 28 exist in every month.
func clampedDays(day int) (bymonthday, bysetpos []int) {
	if day <= 28 {
		return []int{day}, nil
	}
	for d := 28; d <= day; d++ {
		bymonthday = append(bymonthday, d)
	}
	return bymonthday, []int{-1}
}

// Upcoming lists the next n run dates after from by repeatedly applying NextRun,
// which is exactly the sequence RunDue would produce
func Upcoming(freq Frequency, from time.Time, n int) ([]time.Time, error) {
	dates := make([]time.Time, 0, n)
	current := transaction.StartOfDay(from)
	for i := 0; i < n; i++ {
		next, err := NextRun(freq, current)
		if err != nil {
			return nil, err
		}
		dates = append(dates, next)
		current = next
	}
	return dates, nil
}
