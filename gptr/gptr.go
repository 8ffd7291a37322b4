// Package gptr implements the typed global pointer (C13): a thin wrapper
// around addr.GlobalAddress whose dereference performs the local-memcpy
// or remote-transport load/store path, with pointer arithmetic in units
// of sizeof(T). Grounded on spec.md §4.13 and original_source/pando-rt's
// global_ptr.cpp, whose PREP backend this rewrite diverges from exactly
// once (the both-remote memcpy case — see DESIGN.md).
package gptr

import (
	"unsafe"

	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/locality"
)

// GlobalPtr is a typed handle into the global address space. The zero
// value wraps addr.GlobalAddress(0), which decodes to addr.Unknown and
// is never dereferenceable.
type GlobalPtr[T any] struct {
	Addr addr.GlobalAddress
}

// Of wraps a raw global address as a typed pointer.
func Of[T any](a addr.GlobalAddress) GlobalPtr[T] { return GlobalPtr[T]{Addr: a} }

func sizeofT[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// SizeAlign returns sizeof(T) and alignof(T), for callers (pxn.World's
// AllocateMemory) that must size and align a dynamic allocation (C3)
// before a GlobalPtr[T] into it can exist.
func SizeAlign[T any]() (size, align uint64) {
	var zero T
	return uint64(unsafe.Sizeof(zero)), uint64(unsafe.Alignof(zero))
}

// Add returns p advanced by n elements of T, operating on the offset
// field of the encoded address (spec.md §4.13: "pointer arithmetic is in
// units of sizeof(T)").
func (p GlobalPtr[T]) Add(n int64) (GlobalPtr[T], cmn.Status) {
	off, err := addr.OffsetOf(p.Addr)
	if err != nil {
		return GlobalPtr[T]{}, cmn.InvalidValue
	}
	next := off + uint64(n)*sizeofT[T]()
	a, err := addr.WithOffset(p.Addr, next)
	if err != nil {
		return GlobalPtr[T]{}, cmn.InvalidValue
	}
	return GlobalPtr[T]{Addr: a}, cmn.Success
}

// encodeT/decodeT reinterpret T's bit pattern as raw bytes. T is
// expected to be one of the fixed-width integer/float kinds the runtime
// moves around; this mirrors the original's byte-for-byte memcpy
// semantics rather than imposing a serialization format.
func encodeT[T any](v T) []byte {
	n := int(unsafe.Sizeof(v))
	return unsafe.Slice((*byte)(unsafe.Pointer(&v)), n)
}

func decodeT[T any](b []byte) T {
	var v T
	n := int(unsafe.Sizeof(v))
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), n), b[:n])
	return v
}

// Load dereferences p: a local memcpy if p's node is loc's own, a
// remote transport load otherwise (spec.md §4.13).
func Load[T any](loc locality.Local, h *hart.Context, p GlobalPtr[T]) (T, cmn.Status) {
	var zero T
	n := int(sizeofT[T]())
	if locality.IsLocal(loc, p.Addr) {
		buf, status := loc.ReadLocal(p.Addr, n)
		h.Yield()
		if !status.Ok() {
			return zero, status
		}
		return decodeT[T](buf), cmn.Success
	}
	node, err := addr.NodeOf(p.Addr)
	if err != nil {
		return zero, cmn.InvalidValue
	}
	lh, sendErr := loc.Mesh().SendLoad(node, p.Addr, n)
	if sendErr != nil {
		return zero, cmn.Error
	}
	h.YieldUntil(lh.Ready)
	return decodeT[T](lh.Bytes()), cmn.Success
}

// Store writes v into p's referent: a local memcpy if local, a remote
// transport store otherwise.
func Store[T any](loc locality.Local, h *hart.Context, p GlobalPtr[T], v T) cmn.Status {
	if locality.IsLocal(loc, p.Addr) {
		status := loc.WriteLocal(p.Addr, encodeT(v))
		h.Yield()
		return status
	}
	node, err := addr.NodeOf(p.Addr)
	if err != nil {
		return cmn.InvalidValue
	}
	ah, sendErr := loc.Mesh().SendStore(node, p.Addr, encodeT(v))
	if sendErr != nil {
		return cmn.Error
	}
	h.YieldUntil(ah.Ready)
	return cmn.Success
}

// Memcpy copies n bytes from src to dst, choosing one of the four
// locality strategies spec.md §4.13 lists: both local is a plain
// memcpy, one-sided cases use a single remote op directly against the
// local side's buffer, and both-remote allocates a temporary, remote
// loads into it, then remote-stores from it before freeing — the one
// path original_source's PREP backend leaves unimplemented ("This case
// should not occur") that spec.md nonetheless requires (see
// SPEC_FULL.md §3.4).
func Memcpy(loc locality.Local, h *hart.Context, dst, src addr.GlobalAddress, n int) cmn.Status {
	dstLocal := locality.IsLocal(loc, dst)
	srcLocal := locality.IsLocal(loc, src)

	switch {
	case dstLocal && srcLocal:
		buf, status := loc.ReadLocal(src, n)
		if !status.Ok() {
			return status
		}
		return loc.WriteLocal(dst, buf)

	case srcLocal && !dstLocal:
		buf, status := loc.ReadLocal(src, n)
		if !status.Ok() {
			return status
		}
		node, err := addr.NodeOf(dst)
		if err != nil {
			return cmn.InvalidValue
		}
		ah, sendErr := loc.Mesh().SendStore(node, dst, buf)
		if sendErr != nil {
			return cmn.Error
		}
		h.YieldUntil(ah.Ready)
		return cmn.Success

	case dstLocal && !srcLocal:
		node, err := addr.NodeOf(src)
		if err != nil {
			return cmn.InvalidValue
		}
		lh, sendErr := loc.Mesh().SendLoad(node, src, n)
		if sendErr != nil {
			return cmn.Error
		}
		h.YieldUntil(lh.Ready)
		return loc.WriteLocal(dst, lh.Bytes())

	default: // both remote: temp-buffer strategy
		srcNode, err := addr.NodeOf(src)
		if err != nil {
			return cmn.InvalidValue
		}
		lh, sendErr := loc.Mesh().SendLoad(srcNode, src, n)
		if sendErr != nil {
			return cmn.Error
		}
		h.YieldUntil(lh.Ready)

		dstNode, err := addr.NodeOf(dst)
		if err != nil {
			return cmn.InvalidValue
		}
		ah, sendErr := loc.Mesh().SendStore(dstNode, dst, lh.Bytes())
		if sendErr != nil {
			return cmn.Error
		}
		h.YieldUntil(ah.Ready)
		// The temporary is the handle's own buffer (lh.Bytes()), owned by
		// this stack frame; it is freed implicitly when Memcpy returns,
		// matching spec.md §4.13's "allocate a temporary ... then free".
		return cmn.Success
	}
}
