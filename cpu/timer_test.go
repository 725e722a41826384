package cpu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countTimers struct {
	ticks int
}

func (ct *countTimers) TimerTick() {
	ct.ticks++
}

func TestTimerClock_Advance(t *testing.T) {
	assert := assert.New(t)

	period := time.Second / TIMER_HZ

	tc := &TimerClock{}
	timers := &countTimers{}

	assert.Equal(0, tc.Advance(timers, period-1))
	assert.Equal(0, timers.ticks)
	assert.Equal(period-1, tc.Pending())

	assert.Equal(1, tc.Advance(timers, 1))
	assert.Equal(1, timers.ticks)
	assert.Equal(time.Duration(0), tc.Pending())

	assert.Equal(3, tc.Advance(timers, 3*period+period/2))
	assert.Equal(4, timers.ticks)
	assert.Equal(period/2, tc.Pending())

	tc.Reset()
	assert.Equal(time.Duration(0), tc.Pending())
}

func TestTimerClock_Period(t *testing.T) {
	assert := assert.New(t)

	tc := &TimerClock{Period: 10 * time.Millisecond}
	timers := &countTimers{}

	// Many small host steps add up to the same cadence.
	for range 100 {
		tc.Advance(timers, time.Millisecond)
	}
	assert.Equal(10, timers.ticks)
}

func TestTimerClock_Countdown(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t)
	cpu.Delay = 5
	cpu.Sound = 1

	tc := &TimerClock{}
	tc.Advance(cpu, time.Second/TIMER_HZ)
	assert.Equal(uint8(4), cpu.Delay)
	assert.Equal(uint8(0), cpu.Sound)

	tc.Advance(cpu, time.Second)
	assert.Equal(uint8(0), cpu.Delay)
	assert.Equal(uint8(0), cpu.Sound)

	tc.Advance(cpu, time.Second/TIMER_HZ)
	assert.Equal(uint8(0), cpu.Delay)
}
