package memsys

import (
	"sync"

	"github.com/pando-hammer/pandohammer/cmn"
)

// Tier is a byte-backed memory tier: a reservation counter (C4) for
// fixed-offset globals plus a dynamic Resource (C3) for the remainder,
// both addressing into the same backing buffer. One Tier exists per L2SP
// pod and one per PXN's main memory; L1SP is not tier-managed (it is a
// per-hart scratchpad, translated via hart.Context.L1SPOffset instead).
type Tier struct {
	mu       sync.Mutex
	bytes    []byte
	specific Specific
	resource *Resource // nil until BeginDynamic is called
}

// NewTier allocates a zero-filled backing buffer of the given capacity.
// Dynamic allocation is unavailable until BeginDynamic is called, which
// happens once boot-time specific-storage reservations are done (spec.md
// §4.4: "Reserved ranges are zero-initialized at boot by C3 before
// dynamic allocation begins").
func NewTier(capacityBytes uint64) *Tier {
	return &Tier{bytes: make([]byte, capacityBytes)}
}

// ReserveSpecific reserves size bytes of zero-initialized, fixed-offset
// storage (C4) before dynamic allocation begins.
func (t *Tier) ReserveSpecific(size, align uint64) (uint64, cmn.Status) {
	return t.specific.Reserve(size, align)
}

// BeginDynamic constructs the tier's dynamic Resource over the bytes left
// after specific-storage reservations. Must be called exactly once, after
// all boot-time ReserveSpecific calls and before any Allocate call.
func (t *Tier) BeginDynamic(breakdown []RatioBreakdown) {
	t.mu.Lock()
	defer t.mu.Unlock()
	base := t.specific.Reserved()
	capacity := uint64(len(t.bytes)) - base
	t.resource = NewResource(base, capacity, breakdown)
}

// Allocate reserves bytes-byte, align-aligned dynamic storage.
func (t *Tier) Allocate(bytes, align uint64) (uint64, bool) {
	return t.resource.Allocate(bytes, align)
}

// Deallocate returns a dynamic allocation to its resource.
func (t *Tier) Deallocate(offset, bytes, align uint64) {
	t.resource.Deallocate(offset, bytes, align)
}

// Read copies n bytes starting at offset. Returns MemoryError if the
// range falls outside the tier.
func (t *Tier) Read(offset uint64, n int) ([]byte, cmn.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if offset+uint64(n) > uint64(len(t.bytes)) {
		return nil, cmn.MemoryError
	}
	out := make([]byte, n)
	copy(out, t.bytes[offset:offset+uint64(n)])
	return out, cmn.Success
}

// Write copies data into the tier starting at offset.
func (t *Tier) Write(offset uint64, data []byte) cmn.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if offset+uint64(len(data)) > uint64(len(t.bytes)) {
		return cmn.MemoryError
	}
	copy(t.bytes[offset:], data)
	return cmn.Success
}

// WithLock runs fn while holding the tier's byte-region lock, giving the
// atomics façade (C10) a place to implement read-modify-write operations
// without exposing the backing slice. The mutex is coarse-grained by
// tier rather than lock-free per word; spec.md §4.3 leaves the exact
// synchronization mechanism of a memory resource unspecified, and §4.10
// only requires that the *appearance* of a native atomic be preserved.
func (t *Tier) WithLock(fn func(bytes []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.bytes)
}
