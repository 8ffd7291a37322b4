package memsys

import (
	"sync"

	"golang.org/x/exp/slices"

	"github.com/pando-hammer/pandohammer/cmn"
)

// slabClass is one fixed-size bucket within a tier's dynamic-allocation
// region. Its [start, end) extent is computed once at construction by
// walking the tier's capacity in declared order (memory_resources.cpp's
// alignStartAndRound), honoring natural alignment at each step.
type slabClass struct {
	size       uint64
	start, end uint64
	mu         sync.Mutex
	free       []uint64 // offsets returned to this class, available for reuse
	next       uint64   // next never-yet-used offset within [start, end)
}

func (c *slabClass) allocate() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.free); n > 0 {
		off := c.free[n-1]
		c.free = c.free[:n-1]
		return off, true
	}
	if c.next+c.size > c.end {
		return 0, false
	}
	off := c.next
	c.next += c.size
	return off, true
}

func (c *slabClass) deallocate(offset uint64) {
	c.mu.Lock()
	c.free = append(c.free, offset)
	c.mu.Unlock()
}

func (c *slabClass) contains(offset uint64) bool {
	return offset >= c.start && offset < c.end
}

// freeRange is a reclaimed range of the bump region, tracked by the free
// list so deallocate(bump-allocated pointer) can be reused before the
// bump pointer advances further.
type freeRange struct {
	start, size uint64
}

// freeList owns coalescing of reclaimed bump-region ranges. Unlike the
// original's in-place metadata buffer (sized via computeMetadataSize()),
// this is a plain Go slice: Go's own heap provides the bookkeeping
// storage a freestanding C++ allocator has to carve out of the resource
// itself, so there is no separate "free list region" of the tier to
// size — see DESIGN.md for the corresponding open-question resolution.
// The tier-accounting invariant spec.md requires (bucket ranges disjoint,
// their union the dynamic-allocation region) is unaffected.
type freeList struct {
	mu     sync.Mutex
	ranges []freeRange
}

func (f *freeList) put(start, size uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges = append(f.ranges, freeRange{start, size})
	slices.SortFunc(f.ranges, func(a, b freeRange) int {
		switch {
		case a.start < b.start:
			return -1
		case a.start > b.start:
			return 1
		default:
			return 0
		}
	})
	// coalesce adjacent ranges
	merged := f.ranges[:0]
	for _, r := range f.ranges {
		if n := len(merged); n > 0 && merged[n-1].start+merged[n-1].size == r.start {
			merged[n-1].size += r.size
		} else {
			merged = append(merged, r)
		}
	}
	f.ranges = merged
}

// take returns the first range of at least size bytes, splitting it if
// larger than needed.
func (f *freeList) take(size uint64) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.ranges {
		if r.size >= size {
			if r.size == size {
				f.ranges = append(f.ranges[:i], f.ranges[i+1:]...)
			} else {
				f.ranges[i] = freeRange{r.start + size, r.size - size}
			}
			return r.start, true
		}
	}
	return 0, false
}

// RatioBreakdown describes one slab class's fixed size and its share of
// the tier's dynamic-allocation region, in declared order.
type RatioBreakdown struct {
	Size  uint64
	Ratio float64
}

// L2SPRatios is the default breakdown for an L2SP resource (spec.md
// §4.3): 8/16/32-byte buckets at 0.2/0.3/0.4 of the region.
func L2SPRatios() []RatioBreakdown {
	return []RatioBreakdown{
		{8, 0.2},
		{16, 0.3},
		{32, 0.4},
	}
}

// MainRatios is the default breakdown for a main-memory resource
// (spec.md §4.3): 8/16/32/64/128-byte buckets at
// 0.006/0.006/0.006/0.063/0.031 of the region.
func MainRatios() []RatioBreakdown {
	return []RatioBreakdown{
		{8, 0.006},
		{16, 0.006},
		{32, 0.006},
		{64, 0.063},
		{128, 0.031},
	}
}

// Resource is one tier's memory resource: the composition of slab
// buckets, a bump allocator and a free list described in spec.md §4.3.
// One Resource exists per tier per PXN (one L2SP, one main memory), both
// built by pxn.New through Tier.BeginDynamic.
type Resource struct {
	base     uint64 // offset of this tier's dynamic-allocation region
	capacity uint64 // bytes available to this resource, after the
	// specific-storage reservation has been carved out by the caller
	slabs []*slabClass
	bump  atomic64
	free  freeList
}

type atomic64 struct {
	mu  sync.Mutex
	cur uint64
}

// reserve aligns the bump cursor up to alignment, then carves out n bytes
// starting at that aligned cursor and advances the cursor past them — the
// cursor must be aligned *before* the reservation is sized, not after,
// so the returned range is exactly the span reserved from the cursor
// (mirrors Specific.Reserve's aligned-then-sized ordering).
func (a *atomic64) reserve(n, alignment, limit uint64) (uint64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	aligned := alignUp(a.cur, alignment)
	if aligned+n > limit {
		return 0, false
	}
	a.cur = aligned + n
	return aligned, true
}

// NewResource builds a tier's memory resource over [base, base+capacity),
// laying out slab classes per breakdown in declared order and reserving
// the remaining tail for the bump allocator.
func NewResource(base, capacity uint64, breakdown []RatioBreakdown) *Resource {
	r := &Resource{base: base, capacity: capacity}
	cursor := base
	for _, b := range breakdown {
		maxAlignedChunks := uint64(b.Ratio * float64(capacity) / float64(b.Size))
		start := alignUp(cursor, b.Size)
		end := start + maxAlignedChunks*b.Size
		r.slabs = append(r.slabs, &slabClass{size: b.Size, start: start, end: end, next: start})
		cursor = end
	}
	r.bump.cur = cursor
	return r
}

// Allocate returns an offset at least align-aligned for a region of
// exactly bytes bytes, fully contained within exactly one bucket of this
// tier, or reports failure via ok=false (spec.md never throws; null is
// the failure signal).
func (r *Resource) Allocate(bytes, align uint64) (offset uint64, ok bool) {
	if align == 0 {
		align = 1
	}
	// Chain fallthrough: try the smallest slab class that can hold the
	// request and whose natural size satisfies the alignment, then
	// progressively larger ones, before falling back to bump/freelist.
	for _, s := range r.slabs {
		if bytes > s.size || s.size%align != 0 {
			continue
		}
		if off, ok := s.allocate(); ok {
			return off, true
		}
	}
	// Large allocations, or slab exhaustion: free list first (reuse of a
	// previously bump-allocated-then-freed range), then bump.
	aligned := alignUp(bytes, align)
	if off, ok := r.free.take(aligned); ok {
		return off, true
	}
	limit := r.base + r.capacity
	if off, ok := r.bump.reserve(aligned, align, limit); ok {
		return off, true
	}
	return 0, false
}

// Deallocate returns a previously allocated range to its owning bucket:
// the matching slab class if offset falls within one, otherwise the free
// list (which owns coalescing of bump-region ranges).
func (r *Resource) Deallocate(offset, bytes, align uint64) {
	for _, s := range r.slabs {
		if s.contains(offset) {
			s.deallocate(offset)
			return
		}
	}
	r.free.put(offset, alignUp(bytes, align))
}

// Status re-exports cmn.Status so callers of this package do not need an
// extra import solely for the BadAlloc/InsufficientSpace codes Allocate's
// callers typically translate a false ok into.
type Status = cmn.Status
