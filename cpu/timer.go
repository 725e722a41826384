package cpu

import (
	"time"
)

const (
	TIMER_HZ = 60 // Nominal timer decrement rate.
)

// Timers are decremented by a TimerClock.
type Timers interface {
	TimerTick()
}

// TimerClock converts elapsed host time into timer decrements at a fixed
// cadence, independent of how many instructions ran in between.
type TimerClock struct {
	Period time.Duration // Interval per decrement. Zero selects 1/TIMER_HZ.

	elapsed time.Duration
}

func (tc *TimerClock) period() time.Duration {
	if tc.Period <= 0 {
		return time.Second / TIMER_HZ
	}
	return tc.Period
}

// Advance accumulates dt, and ticks the timers once for every whole
// period accumulated. The remainder carries to the next call.
func (tc *TimerClock) Advance(timers Timers, dt time.Duration) (ticks int) {
	period := tc.period()

	tc.elapsed += dt
	for tc.elapsed >= period {
		tc.elapsed -= period
		timers.TimerTick()
		ticks++
	}

	return
}

// Pending returns the accumulated time not yet converted into a tick.
func (tc *TimerClock) Pending() time.Duration {
	return tc.elapsed
}

func (tc *TimerClock) Reset() {
	tc.elapsed = 0
}
