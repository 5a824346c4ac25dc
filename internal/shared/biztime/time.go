// Package biztime provides pure UTC period-boundary calculations for
// rate-limit windows.
//
// Design principles:
// - All storage and transport use UTC; implicit Local timezone is prohibited
// - Period starts are canonical instants: the same (periodType, anchor, now)
//   always maps to the same start
// - Monthly windows are anchored to the subscriber's first purchase day,
//   clamped to the last day of short months
package biztime

import "time"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// CurrentHourStart returns now truncated to the start of its UTC hour.
func CurrentHourStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC)
}

// NextHourStart returns the start of the UTC hour following now,
// rolling over day, month and year boundaries.
func NextHourStart(now time.Time) time.Time {
	return CurrentHourStart(now).Add(time.Hour)
}

// CurrentDayStart returns now truncated to UTC midnight.
func CurrentDayStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDayStart returns the UTC midnight following now, rolling over
// month and year boundaries.
func NextDayStart(now time.Time) time.Time {
	return CurrentDayStart(now).AddDate(0, 0, 1)
}

// SubscriptionMonthStart returns the start of the current anchored monthly
// window. The window opens at UTC midnight on the anchor's day-of-month,
// clamped to the last day of short months (an anchor on the 31st opens on
// Feb 28 in non-leap years). A day equal to the clamped anchor day belongs
// to the current window, not the previous one.
//
// A nil anchor means the subscriber has no purchase date; the window
// degrades to the calendar month.
func SubscriptionMonthStart(anchor *time.Time, now time.Time) time.Time {
	now = now.UTC()
	year, month, day := now.Date()

	if anchor == nil {
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	}

	anchorDay := anchor.UTC().Day()
	effective := effectiveAnchorDay(year, month, anchorDay)
	if day >= effective {
		return time.Date(year, month, effective, 0, 0, 0, 0, time.UTC)
	}

	prevYear, prevMonth := previousMonth(year, month)
	return time.Date(prevYear, prevMonth, effectiveAnchorDay(prevYear, prevMonth, anchorDay), 0, 0, 0, 0, time.UTC)
}

// NextSubscriptionMonthStart returns the exclusive end of the current
// anchored monthly window: the same construction as SubscriptionMonthStart
// advanced by one month and clamped again.
func NextSubscriptionMonthStart(anchor *time.Time, now time.Time) time.Time {
	now = now.UTC()

	if anchor == nil {
		year, month, _ := now.Date()
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	}

	current := SubscriptionMonthStart(anchor, now)
	nextYear, nextMonth := followingMonth(current.Year(), current.Month())
	anchorDay := anchor.UTC().Day()
	return time.Date(nextYear, nextMonth, effectiveAnchorDay(nextYear, nextMonth, anchorDay), 0, 0, 0, 0, time.UTC)
}

// effectiveAnchorDay clamps the anchor day-of-month to the last day of the
// given month, so an anchor on the 31st never produces a non-existent date.
func effectiveAnchorDay(year int, month time.Month, anchorDay int) int {
	if last := lastDayOfMonth(year, month); anchorDay > last {
		return last
	}
	return anchorDay
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}

func previousMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

func followingMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
