package sim

import (
	"fmt"
)

// Process is a resumable logical process driven by the Scheduler. A process
// is a sequence of {compute, wait} steps: each Resume call runs one step,
// which may schedule further resumptions or acquire pool capacity, then
// returns. Only one step executes at a time, so processes share state
// without locks.
//
// Suspension happens in exactly two places: a scheduled timeout
// (Scheduler.ScheduleAfter) or a pool wait (Pool.Acquire). A process must
// never block the scheduler any other way.
type Process interface {
	Resume(now int64)
}

// ProcessFunc adapts a plain function to the Process interface.
type ProcessFunc func(now int64)

// Resume implements Process.
func (f ProcessFunc) Resume(now int64) { f(now) }

// Scheduler owns the simulated clock and the time-ordered queue of pending
// resumptions. Identical-time resumptions run in scheduling order (stable
// FIFO), so a run is fully deterministic for a fixed seed and
// configuration. Each simulation owns its own Scheduler; independent runs
// share nothing.
type Scheduler struct {
	clock   int64
	pending *timerHeap
	seq     uint64 // monotonic scheduling counter, breaks same-time ties
}

// NewScheduler creates a scheduler with the clock at zero.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: newTimerHeap()}
}

// Now returns the current simulated time in ticks.
func (s *Scheduler) Now() int64 {
	return s.clock
}

// ScheduleAfter registers proc to resume after delay ticks. A zero delay
// resumes proc at the current instant, after everything already scheduled
// there. A negative delay is a fatal programming error.
func (s *Scheduler) ScheduleAfter(delay int64, proc Process) {
	if delay < 0 {
		panic(fmt.Sprintf("negative timeout: %d ticks", delay))
	}
	s.seq++
	s.pending.schedule(timer{at: s.clock + delay, seq: s.seq, proc: proc})
}

// Run executes pending resumptions in time order until none remain or the
// next one lies beyond the horizon. Work in flight past the horizon is cut,
// not drained: its resumptions never execute, so completion counts and busy
// time reflect only what finished in time. On return the clock sits exactly
// at the horizon.
func (s *Scheduler) Run(horizon int64) {
	for {
		next, ok := s.pending.popNext()
		if !ok || next.at > horizon {
			break
		}
		if next.at < s.clock {
			panic(fmt.Sprintf("clock went backwards: %d < %d", next.at, s.clock))
		}
		s.clock = next.at
		next.proc.Resume(s.clock)
	}
	if s.clock < horizon {
		s.clock = horizon
	}
}
