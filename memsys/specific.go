// Package memsys implements the per-tier memory resource stack (C3: slab
// buckets + bump allocator + free list) and the specific-storage
// reservation counters (C4). Grounded on
// original_source/pando-rt/src/memory_resources.cpp and
// src/specific_storage.cpp.
package memsys

import (
	"go.uber.org/atomic"

	"github.com/pando-hammer/pandohammer/cmn"
)

// MaxAlign bounds the alignment specific-storage reservations may
// request (Resource.Allocate does not check it), mirroring the original's
// alignof(std::max_align_t) check in specific_storage.cpp ("memories are
// malloced which means they are aligned at alignof(max_align_t)").
const MaxAlign = 16

// alignUp rounds size up to the next multiple of alignment (alignment
// must be a power of two).
func alignUp(size, alignment uint64) uint64 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// Specific is the monotonic reservation counter for one memory tier's
// fixed-offset "specific storage" (global variables reserved at PXN boot,
// per spec.md §4.4). One instance guards one tier.
type Specific struct {
	counter atomic.Uint64
}

// Reserve grows the reservation counter by size (rounded to 8 bytes, as
// the original does) after aligning the counter itself to alignment, and
// returns the offset at which the caller's object now lives. Reserved
// ranges are expected to be zero-initialized by the caller before
// dynamic allocation begins (done once, at boot, by the PXN world).
func (s *Specific) Reserve(size, alignment uint64) (uint64, cmn.Status) {
	if alignment > MaxAlign {
		// Catastrophic per spec.md §7: callers should treat this as fatal
		// misconfiguration, not a recoverable condition.
		return 0, cmn.InvalidValue
	}
	for {
		cur := s.counter.Load()
		aligned := alignUp(cur, alignment)
		next := aligned + alignUp(size, 8)
		if s.counter.CAS(cur, next) {
			return aligned, cmn.Success
		}
	}
}

// Reserved returns the total bytes reserved so far; a tier's dynamic
// memory resource is built over the remainder of the tier's configured
// capacity.
func (s *Specific) Reserved() uint64 {
	return s.counter.Load()
}
