package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsInTimeOrder(t *testing.T) {
	sched := NewScheduler()

	var order []int64
	record := func(now int64) {
		order = append(order, now)
	}

	sched.ScheduleAfter(30, ProcessFunc(record))
	sched.ScheduleAfter(10, ProcessFunc(record))
	sched.ScheduleAfter(20, ProcessFunc(record))

	sched.Run(100)

	assert.Equal(t, []int64{10, 20, 30}, order)
	assert.Equal(t, int64(100), sched.Now())
}

func TestScheduler_FIFOAtSameInstant(t *testing.T) {
	// GIVEN three resumptions scheduled for the same instant
	sched := NewScheduler()

	var order []string
	sched.ScheduleAfter(50, ProcessFunc(func(int64) { order = append(order, "a") }))
	sched.ScheduleAfter(50, ProcessFunc(func(int64) { order = append(order, "b") }))
	sched.ScheduleAfter(50, ProcessFunc(func(int64) { order = append(order, "c") }))

	// WHEN the scheduler runs
	sched.Run(100)

	// THEN they execute in scheduling order
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestScheduler_ZeroDelayRunsAfterAlreadyScheduled(t *testing.T) {
	sched := NewScheduler()

	var order []string
	sched.ScheduleAfter(0, ProcessFunc(func(int64) {
		order = append(order, "a")
		// Scheduled mid-instant: lands after everything already queued there
		sched.ScheduleAfter(0, ProcessFunc(func(int64) { order = append(order, "c") }))
	}))
	sched.ScheduleAfter(0, ProcessFunc(func(int64) { order = append(order, "b") }))

	sched.Run(10)

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestScheduler_HorizonTruncatesPendingWork(t *testing.T) {
	sched := NewScheduler()

	var fired []int64
	record := func(now int64) { fired = append(fired, now) }

	sched.ScheduleAfter(50, ProcessFunc(record))
	sched.ScheduleAfter(150, ProcessFunc(record))

	sched.Run(100)

	// The event past the horizon never executes; the clock still ends at
	// exactly the horizon.
	assert.Equal(t, []int64{50}, fired)
	assert.Equal(t, int64(100), sched.Now())
}

func TestScheduler_EventExactlyAtHorizonRuns(t *testing.T) {
	sched := NewScheduler()

	ran := false
	sched.ScheduleAfter(100, ProcessFunc(func(now int64) {
		ran = true
		assert.Equal(t, int64(100), now)
	}))

	sched.Run(100)

	assert.True(t, ran, "event at the horizon instant should execute")
}

func TestScheduler_IdleRunEndsAtHorizon(t *testing.T) {
	sched := NewScheduler()
	sched.Run(500)
	assert.Equal(t, int64(500), sched.Now())
}

func TestScheduler_ChainedScheduling(t *testing.T) {
	// A process that reschedules itself three times
	sched := NewScheduler()

	var times []int64
	var tick Process
	tick = ProcessFunc(func(now int64) {
		times = append(times, now)
		if len(times) < 3 {
			sched.ScheduleAfter(10, tick)
		}
	})
	sched.ScheduleAfter(10, tick)

	sched.Run(1000)

	assert.Equal(t, []int64{10, 20, 30}, times)
}

func TestScheduler_NegativeDelayPanics(t *testing.T) {
	sched := NewScheduler()

	assert.Panics(t, func() {
		sched.ScheduleAfter(-1, ProcessFunc(func(int64) {}))
	})
}
