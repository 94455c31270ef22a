// Package brokerloop implements the broker-base event loop: a two-band
// ActionQueue (priority overtakes normal, never reordering within a band),
// a repeating tick timer, and the Loop that drains the queue and dispatches
// to a Handler, per spec §4.10.
package brokerloop

import (
	"sync"

	"go.helics.dev/corehub/internal/action"
)

// ActionQueue holds pending ActionMessages in two bands. Pop always drains
// the priority band (control-plane: joins, acks, topology, disconnect)
// before the normal band (data-plane), but never reorders within a band.
type ActionQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	priority []action.Message
	normal   []action.Message
	closed   bool
}

// NewActionQueue returns an empty ActionQueue.
func NewActionQueue() *ActionQueue {
	q := &ActionQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues m into the band its Action code belongs to and wakes one
// blocked Pop.
func (q *ActionQueue) Push(m action.Message) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if m.Action.IsPriority() {
		q.priority = append(q.priority, m)
	} else {
		q.normal = append(q.normal, m)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until a message is available or the queue is closed. ok is
// false only when the queue was closed and drained.
func (q *ActionQueue) Pop() (m action.Message, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.priority) == 0 && len(q.normal) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.popLocked()
}

func (q *ActionQueue) popLocked() (action.Message, bool) {
	if len(q.priority) > 0 {
		m := q.priority[0]
		q.priority = q.priority[1:]
		return m, true
	}
	if len(q.normal) > 0 {
		m := q.normal[0]
		q.normal = q.normal[1:]
		return m, true
	}
	return action.Message{}, false
}

// TryPop returns immediately: a message if one is queued, else ok == false.
func (q *ActionQueue) TryPop() (action.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Close marks the queue closed and wakes every blocked Pop; further Push
// calls are silently dropped.
func (q *ActionQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Len reports the total number of queued messages across both bands.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.priority) + len(q.normal)
}
