// Package queue implements the per-core task queue (C2): a bounded,
// multi-producer queue safe for concurrent producers and a single
// logical consumer, matching spec.md §4.2's relaxed ordering contract.
// Grounded on the teacher's xact/xs/tcobjs.go, which backs its per-xaction
// work queue with a buffered channel and logs (rather than blocks) when a
// non-blocking send finds it full.
package queue

import "go.uber.org/atomic"

// Queue is a bounded FIFO-ish queue of runnable closures. The zero value
// is not usable; construct with New.
type Queue struct {
	ch   chan func()
	size atomic.Int64
}

// New returns a queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan func(), capacity)}
}

// TryEnqueue attempts a non-blocking enqueue, returning false if the
// queue is full. Safe for any number of concurrent callers.
func (q *Queue) TryEnqueue(task func()) bool {
	select {
	case q.ch <- task:
		q.size.Inc()
		return true
	default:
		return false
	}
}

// TryDequeue attempts a non-blocking dequeue, returning (nil, false) if
// the queue is empty. Cooperative scheduling (spec.md §5) guarantees at
// most one active dequeuer per core, but concurrent dequeuers (e.g. a
// work-stealing peer) are still safe: the channel itself arbitrates.
func (q *Queue) TryDequeue() (func(), bool) {
	select {
	case t := <-q.ch:
		q.size.Dec()
		return t, true
	default:
		return nil, false
	}
}

// ApproxSize returns an approximate occupancy, used by the work-stealing
// threshold check (spec.md §4.7). It may be stale by the time the caller
// acts on it; that is acceptable per the queue's contract.
func (q *Queue) ApproxSize() int {
	return int(q.size.Load())
}

// Clear drains the queue without running any of the pending tasks.
func (q *Queue) Clear() {
	for {
		select {
		case <-q.ch:
			q.size.Dec()
		default:
			return
		}
	}
}
