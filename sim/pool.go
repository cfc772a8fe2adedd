package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pool models a fixed-capacity resource (a set of identical GPUs) competed
// for by request processes. Admission is immediate while units are free;
// otherwise processes wait in FIFO order. At most capacity units are ever
// held at once.
type Pool struct {
	name     string
	capacity int
	inUse    int
	waiting  waitQueue
	busy     int64 // accumulated hold ticks across all released grants
	sched    *Scheduler
}

// NewPool creates a pool of capacity identical units. The name keys the
// pool's utilization in run results.
func NewPool(sched *Scheduler, name string, capacity int) *Pool {
	if capacity < 1 {
		panic(fmt.Sprintf("pool %q: capacity must be >= 1, got %d", name, capacity))
	}
	return &Pool{name: name, capacity: capacity, sched: sched}
}

// Grant is one unit of pool capacity held by a process, valid from the
// instant its process resumes after Acquire until Release.
type Grant struct {
	pool      *Pool
	grantedAt int64
	held      bool
}

// Acquire requests one unit for proc. With a free unit the grant happens at
// the current instant, the resumption going through the event queue so that
// same-time ordering stays FIFO; otherwise proc joins the wait queue and
// resumes when a release reaches it. The returned Grant becomes valid when
// proc resumes.
func (p *Pool) Acquire(proc Process) *Grant {
	g := &Grant{pool: p}
	if p.inUse < p.capacity {
		p.inUse++
		p.admit(g, proc)
	} else {
		p.waiting.Enqueue(poolWaiter{proc: proc, grant: g})
		logrus.Debugf("pool %s: full at t=%d, %s", p.name, p.sched.Now(), &p.waiting)
	}
	return g
}

// admit activates g and schedules its holder at the current instant.
func (p *Pool) admit(g *Grant, proc Process) {
	g.held = true
	g.grantedAt = p.sched.Now()
	p.sched.ScheduleAfter(0, proc)
}

// Release returns the unit to the pool and adds the hold duration to the
// pool's busy time. If waiters exist the unit passes to the oldest at the
// same instant, leaving inUse untouched, so inUse never exceeds capacity.
// Releasing a grant that is not held is a fatal programming error.
func (g *Grant) Release() {
	if !g.held {
		panic(fmt.Sprintf("pool %q: release of a grant not held", g.pool.name))
	}
	g.held = false
	p := g.pool
	p.busy += p.sched.Now() - g.grantedAt
	if w, ok := p.waiting.Dequeue(); ok {
		p.admit(w.grant, w.proc)
	} else {
		p.inUse--
	}
}

// Name returns the pool's reporting name.
func (p *Pool) Name() string {
	return p.name
}

// Capacity returns the configured unit count.
func (p *Pool) Capacity() int {
	return p.capacity
}

// InUse returns the number of units currently held.
func (p *Pool) InUse() int {
	return p.inUse
}

// Waiting returns the number of processes queued for a unit.
func (p *Pool) Waiting() int {
	return p.waiting.Len()
}

// BusyTicks returns the accumulated hold time over all released grants.
func (p *Pool) BusyTicks() int64 {
	return p.busy
}

// Utilization returns busy time over total capacity-time for an elapsed
// interval.
func (p *Pool) Utilization(elapsed int64) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(p.busy) / (float64(p.capacity) * float64(elapsed))
}
