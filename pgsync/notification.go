package pgsync

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/atomics"
	"github.com/pando-hammer/pandohammer/cmn/mono"
	"github.com/pando-hammer/pandohammer/gptr"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/locality"
)

// Notification is a one-shot boolean flag anywhere in the global address
// space (spec.md §4.12). Wakers Set it (release); waiters Wait/WaitFor
// (acquire).
type Notification struct {
	ptr gptr.GlobalPtr[uint8]
}

// NewNotification zero-initializes the flag at a.
func NewNotification(loc locality.Local, h *hart.Context, a addr.GlobalAddress) *Notification {
	atomics.Store[uint8](loc, h, a, 0, atomics.Relaxed)
	return &Notification{ptr: gptr.Of[uint8](a)}
}

// Set flips the flag true with release ordering.
func (n *Notification) Set(loc locality.Local, h *hart.Context) {
	atomics.Store[uint8](loc, h, n.ptr.Addr, 1, atomics.Release)
}

// Wait blocks until the flag is true, observed with acquire ordering.
func (n *Notification) Wait(loc locality.Local, h *hart.Context) {
	for {
		v, _ := atomics.Load[uint8](loc, h, n.ptr.Addr, atomics.Acquire)
		if v != 0 {
			return
		}
	}
}

// WaitFor blocks until the flag is true or d elapses, returning false on
// timeout without cancelling whichever waker eventually calls Set.
func (n *Notification) WaitFor(loc locality.Local, h *hart.Context, d int64) bool {
	deadline := mono.NanoTime() + d
	for {
		v, _ := atomics.Load[uint8](loc, h, n.ptr.Addr, atomics.Acquire)
		if v != 0 {
			return true
		}
		if mono.NanoTime() >= deadline {
			return false
		}
	}
}
