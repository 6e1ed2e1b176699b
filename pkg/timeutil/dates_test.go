package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateTruncates(t *testing.T) {
	noon := time.Date(2026, 8, 30, 12, 34, 56, 0, time.UTC)
	assert.Equal(t, day(2026, 8, 30), Date(noon))
}

func TestDaysInRangeIsInclusive(t *testing.T) {
	assert.Equal(t, 1, DaysInRange(day(2026, 8, 1), day(2026, 8, 1)))
	assert.Equal(t, 31, DaysInRange(day(2026, 8, 1), day(2026, 8, 31)))
	assert.Equal(t, 2, DaysInRange(day(2026, 8, 31), day(2026, 9, 1)))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(day(2026, 8, 15)))
	assert.Equal(t, 30, DaysInMonth(day(2026, 9, 1)))
	assert.Equal(t, 28, DaysInMonth(day(2026, 2, 10)))
	assert.Equal(t, 29, DaysInMonth(day(2024, 2, 10)))
}

func TestEachDayCrossesMonths(t *testing.T) {
	var days []time.Time
	EachDay(day(2026, 8, 30), day(2026, 9, 2), func(d time.Time) {
		days = append(days, d)
	})
	assert.Equal(t, []time.Time{
		day(2026, 8, 30), day(2026, 8, 31), day(2026, 9, 1), day(2026, 9, 2),
	}, days)
}

func TestEachDayEmptyWhenEndBeforeStart(t *testing.T) {
	called := false
	EachDay(day(2026, 8, 2), day(2026, 8, 1), func(time.Time) { called = true })
	assert.False(t, called)
}

func TestRangeCovers(t *testing.T) {
	start, end := day(2026, 8, 1), day(2026, 8, 31)
	assert.True(t, RangeCovers(start, end, day(2026, 8, 1)))
	assert.True(t, RangeCovers(start, end, day(2026, 8, 31)))
	assert.False(t, RangeCovers(start, end, day(2026, 7, 31)))
	assert.False(t, RangeCovers(start, end, day(2026, 9, 1)))
}
