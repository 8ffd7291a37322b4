package pgsync

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/atomics"
	"github.com/pando-hammer/pandohammer/gptr"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/locality"
)

// WaitGroup is a u64 counter allocated at any place/tier in the global
// address space (spec.md §4.12). Unlike sync.WaitGroup, every method
// takes the caller's locality and hart context since Add/Done/Wait may
// each resolve to a remote active message.
type WaitGroup struct {
	ptr gptr.GlobalPtr[uint64]
}

// NewWaitGroup zero-initializes the counter at a and returns a handle
// bound to it.
func NewWaitGroup(loc locality.Local, h *hart.Context, a addr.GlobalAddress) *WaitGroup {
	atomics.Store[uint64](loc, h, a, 0, atomics.Relaxed)
	return &WaitGroup{ptr: gptr.Of[uint64](a)}
}

// Add increments the counter by delta with release ordering.
func (wg *WaitGroup) Add(loc locality.Local, h *hart.Context, delta int64) {
	if delta >= 0 {
		atomics.FetchAdd[uint64](loc, h, wg.ptr.Addr, uint64(delta), atomics.Release)
	} else {
		atomics.FetchSub[uint64](loc, h, wg.ptr.Addr, uint64(-delta), atomics.Release)
	}
}

// AddOne increments the counter by exactly one.
func (wg *WaitGroup) AddOne(loc locality.Local, h *hart.Context) {
	atomics.FetchAdd[uint64](loc, h, wg.ptr.Addr, 1, atomics.Release)
}

// Done decrements the counter by one with release ordering.
func (wg *WaitGroup) Done(loc locality.Local, h *hart.Context) {
	atomics.FetchSub[uint64](loc, h, wg.ptr.Addr, 1, atomics.Release)
}

// Wait blocks until the counter reaches zero, then observes it with
// acquire ordering (spec.md §4.12: "yield_until(counter == 0) then
// acquire-fence"). There is no timeout variant.
func (wg *WaitGroup) Wait(loc locality.Local, h *hart.Context) {
	for {
		v, _ := atomics.Load[uint64](loc, h, wg.ptr.Addr, atomics.Acquire)
		if v == 0 {
			return
		}
	}
}

// Deinit releases this handle. Idempotent: a second call on an
// already-deinitialized WaitGroup (Addr already the zero address) is a
// no-op, per spec.md §4.12.
func (wg *WaitGroup) Deinit() {
	if wg.ptr.Addr == 0 {
		return
	}
	wg.ptr = gptr.GlobalPtr[uint64]{}
}
