// Package hart implements the cooperative scheduling primitive (C6): a
// single active hart per core at a time, explicit yield points, and
// translation between a hart-local scratchpad offset and its L1SP global
// address offset. Grounded on spec.md §4.6 and §5 ("a hart runs until it
// calls yield() explicitly or blocks inside a yield_until() loop"); the
// baton itself is a Go-idiomatic channel-handoff scheduler rather than a
// literal port of qthread_stackleft()-based stack capture (see
// original_source/pando-rt/src/prep/cores.cpp's hartLoop), since Go has
// no portable way to inspect a goroutine's native stack bounds.
package hart

import "sync"

// Baton round-robins execution among a fixed set of registered harts on
// one core, guaranteeing that at most one is runnable at a time — the
// "cooperative" half of spec.md §5's mixed concurrency model.
type Baton struct {
	mu      sync.Mutex
	turns   []chan struct{}
	order   []int
	started bool
}

// NewBaton prepares a baton for n harts (0..n-1), handing the first turn
// to hart 0 once Start is called.
func NewBaton(n int) *Baton {
	b := &Baton{turns: make([]chan struct{}, n)}
	for i := range b.turns {
		b.turns[i] = make(chan struct{}, 1)
		b.order = append(b.order, i)
	}
	return b
}

// Start releases hart 0 to run. The first turn is buffered, so harts may
// call Join before or after Start; calls after the first are no-ops.
func (b *Baton) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return
	}
	b.started = true
	b.turns[0] <- struct{}{}
}

// Join blocks the calling goroutine (hart id) until it is its turn to run.
func (b *Baton) Join(id int) {
	<-b.turns[id]
}

// Yield relinquishes the current hart (id) to the next hart in
// round-robin order, then blocks until it is id's turn again. If id is
// the only registered hart, Yield returns immediately (handing the baton
// to itself).
func (b *Baton) Yield(id int) {
	next := (id + 1) % len(b.turns)
	b.turns[next] <- struct{}{}
	<-b.turns[id]
}

// HandOff passes the baton to the next hart in round-robin order without
// waiting to regain it — used when a hart is permanently exiting the
// ring (core shutdown) and must not block on a turn that will never
// come back to a goroutine that has already returned.
func (b *Baton) HandOff(id int) {
	next := (id + 1) % len(b.turns)
	b.turns[next] <- struct{}{}
}

// YieldUntil repeatedly yields hart id until cond returns true. This is
// spec.md §4.6's yield_until, the primitive every suspension point in
// §5 (remote ops, WaitGroup.Wait, Notification.Wait, back-pressured
// enqueue) is built from.
func (b *Baton) YieldUntil(id int, cond func() bool) {
	for !cond() {
		b.Yield(id)
	}
}
