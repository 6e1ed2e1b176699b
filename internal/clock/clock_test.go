package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayTruncatesToMidnight(t *testing.T) {
	c := NewFakeClock(time.Date(2026, 8, 31, 10, 45, 12, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), Today(c))
}

func TestYesterdayCrossesMonthBoundary(t *testing.T) {
	c := NewFakeClock(time.Date(2026, 9, 1, 0, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), Yesterday(c))
}

func TestFakeClockAdvance(t *testing.T) {
	c := NewFakeClock(time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC))
	c.Advance(2 * time.Hour)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Today(c))
}
