package pxn

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/gptr"
)

// AllocateMemory wires World.Allocate (C3) into spec.md §6's
// allocate_memory<T>(n, place, tier) → GlobalPtr<T> operation: it sizes
// and aligns the request from T itself (gptr.SizeAlign), reserves n
// contiguous elements in w's own tier, and returns a typed pointer to
// the result. Go methods cannot carry their own type parameter, so this
// is a package-level function over *World rather than a World method.
func AllocateMemory[T any](w *World, tier addr.Tier, n int) (gptr.GlobalPtr[T], cmn.Status) {
	size, align := gptr.SizeAlign[T]()
	a, status := w.Allocate(tier, size*uint64(n), align)
	if !status.Ok() {
		return gptr.GlobalPtr[T]{}, status
	}
	return gptr.Of[T](a), cmn.Success
}

// DeallocateMemory returns a GlobalPtr[T] previously produced by
// AllocateMemory to its tier's resource.
func DeallocateMemory[T any](w *World, p gptr.GlobalPtr[T], n int) cmn.Status {
	size, align := gptr.SizeAlign[T]()
	return w.Deallocate(p.Addr, size*uint64(n), align)
}
