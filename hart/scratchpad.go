package hart

import "sync"

// Scratchpad is a core's L1SP backing storage, partitioned into one
// fixed-size region per hart. spec.md §4.6 derives a hart's L1SP offset
// as `(top − ptr) + hart_id × stack_bytes`, i.e. each hart's region is
// laid out contiguously within the core's L1SP and selected by
// multiplying its id by the per-hart size; this type lays harts out the
// same way but indexes each region from its own base rather than from a
// captured native stack pointer, since Go exposes no portable
// stack-bounds inspection (see original_source/pando-rt's
// qthread_stackleft()-based capture in src/prep/cores.cpp).
type Scratchpad struct {
	mu         sync.Mutex
	bytes      []byte
	bytesPerHart uint64
}

// NewScratchpad allocates a zero-filled L1SP region for a core with the
// given number of harts, each sized bytesPerHart.
func NewScratchpad(harts int, bytesPerHart uint64) *Scratchpad {
	return &Scratchpad{
		bytes:        make([]byte, uint64(harts)*bytesPerHart),
		bytesPerHart: bytesPerHart,
	}
}

// Offset returns the L1SP-tier offset for byte index localOffset within
// hart id's own region: hart_id * bytes_per_hart + localOffset.
func (s *Scratchpad) Offset(hartID int, localOffset uint64) uint64 {
	return uint64(hartID)*s.bytesPerHart + localOffset
}

// Read copies n bytes starting at the tier-wide offset produced by Offset.
func (s *Scratchpad) Read(offset uint64, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, n)
	copy(out, s.bytes[offset:offset+uint64(n)])
	return out
}

// Write copies data into the tier starting at offset.
func (s *Scratchpad) Write(offset uint64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.bytes[offset:], data)
}
