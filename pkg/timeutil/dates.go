package timeutil

import "time"

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from start to end. Both
// arguments are expected to be midnight-UTC dates.
func DaysBetween(start, end time.Time) int {
	return int(Date(end).Sub(Date(start)).Hours() / 24)
}

// DaysInRange returns the inclusive day count of [start, end].
func DaysInRange(start, end time.Time) int {
	return DaysBetween(start, end) + 1
}

// DaysInMonth returns the number of calendar days in the month containing t.
func DaysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// EachDay calls fn for every date in [start, end] in ascending order.
func EachDay(start, end time.Time, fn func(day time.Time)) {
	for day := Date(start); !day.After(Date(end)); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

// DaysOfRange materializes [start, end] as a slice of dates.
func DaysOfRange(start, end time.Time) []time.Time {
	var days []time.Time
	EachDay(start, end, func(day time.Time) {
		days = append(days, day)
	})
	return days
}

// RangeCovers reports whether date d falls inside the closed range
// [start, end].
func RangeCovers(start, end, d time.Time) bool {
	return !Date(d).Before(Date(start)) && !Date(d).After(Date(end))
}
