// Package calendar derives the monthly calendar view (grid image and recent
// event list) from the event log.
//
// Weekdays are numbered Sunday = 0 through Saturday = 6, matching
// time.Weekday, and the grid's first column is Sunday.
package calendar

import "time"

// MonthOf resolves now in loc and returns the calendar month it falls in.
func MonthOf(now time.Time, loc *time.Location) (int, time.Month) {
	if loc == nil {
		loc = time.UTC
	}
	t := now.In(loc)
	return t.Year(), t.Month()
}

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// sakamotoOffsets are the per-month offsets of Sakamoto's day-of-week method.
var sakamotoOffsets = [12]int{0, 3, 2, 5, 0, 3, 5, 1, 4, 6, 2, 4}

// FirstWeekday returns the weekday of the first day of the month.
func FirstWeekday(year int, month time.Month) time.Weekday {
	return weekday(year, month, 1)
}

func weekday(year int, month time.Month, day int) time.Weekday {
	y := year
	if month < time.March {
		y--
	}
	w := (y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) + sakamotoOffsets[month-1] + day) % 7
	if w < 0 {
		w += 7
	}
	return time.Weekday(w)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
