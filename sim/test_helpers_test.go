package sim

// Shared process helpers for scheduler and pool tests.

// holder acquires one unit, holds it for a fixed duration, then releases.
// It records the grant instant so tests can assert admission order.
type holder struct {
	pool  *Pool
	sched *Scheduler
	hold  int64

	grant   *Grant
	gotAt   int64
	granted bool
	done    bool
	phase   int
}

func newHolder(sched *Scheduler, pool *Pool, hold int64) *holder {
	return &holder{pool: pool, sched: sched, hold: hold, gotAt: -1}
}

// start queues the holder for a unit at the current instant.
func (h *holder) start() {
	h.grant = h.pool.Acquire(h)
}

func (h *holder) Resume(now int64) {
	switch h.phase {
	case 0:
		h.phase = 1
		h.granted = true
		h.gotAt = now
		h.sched.ScheduleAfter(h.hold, h)
	case 1:
		h.done = true
		h.grant.Release()
	}
}

// poolProbe samples a pool at a fixed interval and keeps the highest inUse
// count it ever observes. The horizon stops its self-rescheduling.
type poolProbe struct {
	pool     *Pool
	sched    *Scheduler
	interval int64
	maxInUse int
}

func (p *poolProbe) start() {
	p.sched.ScheduleAfter(0, p)
}

func (p *poolProbe) Resume(now int64) {
	if p.pool.InUse() > p.maxInUse {
		p.maxInUse = p.pool.InUse()
	}
	p.sched.ScheduleAfter(p.interval, p)
}
