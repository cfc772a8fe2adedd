// Implements the pool wait queue, which holds processes waiting for a unit
// of pool capacity. Waiters are enqueued on a failed immediate acquire.

package sim

import "fmt"

// poolWaiter pairs a suspended process with the grant it will hold once a
// unit reaches it.
type poolWaiter struct {
	proc  Process
	grant *Grant
}

// waitQueue is a FIFO queue of processes waiting on a pool. Releases always
// hand capacity to the oldest waiter, so no waiter starves.
type waitQueue struct {
	waiters []poolWaiter
}

// Enqueue adds a waiter to the back of the queue.
func (wq *waitQueue) Enqueue(w poolWaiter) {
	if w.proc == nil || w.grant == nil {
		panic("Enqueue: waiter must carry a process and a grant")
	}
	wq.waiters = append(wq.waiters, w)
}

// Len returns the number of waiters in the queue.
func (wq *waitQueue) Len() int {
	return len(wq.waiters)
}

// Dequeue removes and returns the waiter at the front of the queue.
func (wq *waitQueue) Dequeue() (poolWaiter, bool) {
	if len(wq.waiters) == 0 {
		return poolWaiter{}, false
	}
	w := wq.waiters[0]
	wq.waiters = wq.waiters[1:]
	return w, true
}

func (wq *waitQueue) String() string {
	return fmt.Sprintf("[%d waiting]", len(wq.waiters))
}
