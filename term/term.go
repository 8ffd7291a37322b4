// Package term implements quiescence detection (C11): per-pod
// created/finished task counters and the waitAll all-reduce protocol
// that rendezvouses every PXN on the same round before declaring global
// quiescence. Grounded on spec.md §4.11.
package term

import "go.uber.org/atomic"

// Counters tracks one pod's created/finished task counts with relaxed
// increments — spec.md §5: "Termination counters are per-pod atomics
// with relaxed increment/decrement because the all-reduce provides the
// global synchronization point."
type Counters struct {
	created  atomic.Int64
	finished atomic.Int64
}

// IncCreated records one more task created for this pod.
func (c *Counters) IncCreated() { c.created.Inc() }

// IncFinished records one more task finished for this pod.
func (c *Counters) IncFinished() { c.finished.Inc() }

// Created returns the running total of tasks created.
func (c *Counters) Created() int64 { return c.created.Load() }

// Finished returns the running total of tasks finished.
func (c *Counters) Finished() int64 { return c.finished.Load() }

// Remaining is created − finished, spec.md §3's per-pod termination
// invariant.
func (c *Counters) Remaining() int64 { return c.created.Load() - c.finished.Load() }

// Reducer performs one cross-PXN all-reduce round, summing partialNew
// and partialPending across every participating PXN and returning the
// global sums. Supplied by the cp package's barrier mechanism.
type Reducer func(partialNew, partialPending int64) (sumNew, sumPending int64)

// Detector drives spec.md §4.11's waitAll algorithm for one PXN's
// counters (this runtime models one pod per PXN, per the Open Question
// in spec.md §9 on L2SP being flat-per-PXN; a multi-pod PXN would sum
// Counters across pods before calling Reducer).
type Detector struct {
	counters *Counters
}

// NewDetector binds a Detector to the given counters.
func NewDetector(c *Counters) *Detector { return &Detector{counters: c} }

// WaitAll blocks until the CP-only quiescence protocol completes: each
// round computes this PXN's partial new-task and pending-task counts
// since the last round, all-reduces them via reduce, and exits once both
// global sums are zero. Per spec.md §4.11 this is intentionally safe
// against a single round's false positive: the very first round's
// partial_pending reflects real in-flight work sampled before any PXN
// has rendezvoused, so no PXN can observe quiescence before every PXN
// has at least participated in one full reduction together.
func (d *Detector) WaitAll(reduce Reducer) {
	prevCreated := d.counters.Created()
	for {
		partialNew := d.counters.Created() - prevCreated
		partialPending := d.counters.Created() - d.counters.Finished()
		sumNew, sumPending := reduce(partialNew, partialPending)
		if sumNew == 0 && sumPending == 0 {
			return
		}
		prevCreated = d.counters.Created()
	}
}
