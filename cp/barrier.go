// Package cp implements the per-PXN Command Processor (C8): bring-up
// sequencing, the cross-PXN barrier/all-reduce, and shutdown. Grounded
// on spec.md §4.8 and SPEC_FULL.md §3.3/§3.5 (original_source/pando-rt's
// prep/cores.cpp ComputeNode::start/stop and wait.cpp's barrier shape).
package cp

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/pando-hammer/pandohammer/pgsync"
)

// AllReduce is the cross-PXN rendezvous primitive spec.md §4.8 describes
// as "increment a global 'CPs reached' counter on PXN 0; the last CP to
// arrive resets the counter and sets each PXN's barrier-exit flag;
// others spin-yield on their own flag". This rewrite models every
// participant's flag as one shared generation counter rather than N
// individual flags — equivalent under the in-process mesh this runtime
// targets (see DESIGN.md) — and doubles as spec.md §4.11's cross-PXN
// all-reduce (Sum) for termination detection, per SPEC_FULL.md §3.5.
type AllReduce struct {
	n          int64
	arrived    atomic.Int64
	generation atomic.Int64

	mu      sync.Mutex
	pending [2]int64
	results [2]int64
}

// NewAllReduce returns a barrier/all-reduce for exactly n participants.
func NewAllReduce(n int) *AllReduce {
	return &AllReduce{n: int64(n)}
}

// Sum contributes this participant's (partialNew, partialPending) pair
// and blocks until every participant has contributed to this round,
// returning the round's global sums to all of them.
func (a *AllReduce) Sum(v1, v2 int64) (int64, int64) {
	gen := a.generation.Load()

	a.mu.Lock()
	a.pending[0] += v1
	a.pending[1] += v2
	a.mu.Unlock()

	if a.arrived.Inc() == a.n {
		a.mu.Lock()
		a.results[0], a.results[1] = a.pending[0], a.pending[1]
		a.pending[0], a.pending[1] = 0, 0
		a.mu.Unlock()
		a.arrived.Store(0)
		a.generation.Inc()
	} else {
		pgsync.WaitUntilCP(func() bool { return a.generation.Load() != gen })
	}
	return a.results[0], a.results[1]
}

// Wait is a value-less barrier rendezvous (spec.md §4.8's bring-up and
// pre-shutdown barriers, which carry no payload).
func (a *AllReduce) Wait() {
	a.Sum(0, 0)
}
