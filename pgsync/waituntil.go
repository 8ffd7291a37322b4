// Package pgsync implements the sync primitives of C12: WaitGroup and
// Notification backed by a counter/flag living anywhere in the global
// address space, plus the two flavors of waitUntil spec.md §4.6/§4.12
// calls out — one for cooperative harts, one for the CP (which is not a
// hart and has no baton to yield to). Grounded on spec.md §4.12.
package pgsync

import (
	"runtime"

	"github.com/pando-hammer/pandohammer/hart"
)

// WaitUntil blocks hart h cooperatively until cond returns true.
func WaitUntil(h *hart.Context, cond func() bool) {
	h.YieldUntil(cond)
}

// WaitUntilCP busy-waits until cond returns true, yielding the OS thread
// between checks. The CP thread (spec.md §4.8) participates in none of
// a pod's cooperative scheduling, so it has no baton to hand off to.
func WaitUntilCP(cond func() bool) {
	for !cond() {
		runtime.Gosched()
	}
}
