package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time.Now so processing dates can be pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// NewSystemClock returns a Clock backed by the wall clock.
func NewSystemClock() Clock {
	return systemClock{}
}

// Today returns the clock's current day truncated to midnight UTC.
func Today(c Clock) time.Time {
	now := c.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Yesterday returns the day before the clock's current day. The usual
// processing default: a day's facts are complete only once the day is over.
func Yesterday(c Clock) time.Time {
	return Today(c).AddDate(0, 0, -1)
}

// Module provides the system clock.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
