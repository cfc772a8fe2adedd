package sim

import "container/heap"

// timer is one pending resumption: a process due to run at a point in
// simulated time.
type timer struct {
	at   int64 // resume time in ticks
	seq  uint64
	proc Process
}

// timerHeap implements a priority queue with deterministic ordering
// Ordering: resume time → scheduling sequence
type timerHeap struct {
	timers []timer
}

// newTimerHeap creates a new timer heap
func newTimerHeap() *timerHeap {
	h := &timerHeap{
		timers: make([]timer, 0),
	}
	heap.Init(h)
	return h
}

// Len implements heap.Interface
func (h *timerHeap) Len() int {
	return len(h.timers)
}

// Less implements heap.Interface with deterministic ordering
// Order by: resume time → scheduling sequence (FIFO for same-time ties)
func (h *timerHeap) Less(i, j int) bool {
	ti, tj := h.timers[i], h.timers[j]
	if ti.at != tj.at {
		return ti.at < tj.at
	}
	return ti.seq < tj.seq
}

// Swap implements heap.Interface
func (h *timerHeap) Swap(i, j int) {
	h.timers[i], h.timers[j] = h.timers[j], h.timers[i]
}

// Push implements heap.Interface
func (h *timerHeap) Push(x interface{}) {
	h.timers = append(h.timers, x.(timer))
}

// Pop implements heap.Interface
func (h *timerHeap) Pop() interface{} {
	old := h.timers
	n := len(old)
	item := old[n-1]
	h.timers = old[0 : n-1]
	return item
}

// schedule adds a timer to the heap
func (h *timerHeap) schedule(t timer) {
	heap.Push(h, t)
}

// popNext removes and returns the earliest timer
func (h *timerHeap) popNext() (timer, bool) {
	if h.Len() == 0 {
		return timer{}, false
	}
	return heap.Pop(h).(timer), true
}

// peek returns the earliest timer without removing it
func (h *timerHeap) peek() (timer, bool) {
	if h.Len() == 0 {
		return timer{}, false
	}
	return h.timers[0], true
}
