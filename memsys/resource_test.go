package memsys

import "testing"

func TestResourceSlabAllocateReuse(t *testing.T) {
	r := NewResource(0, 4096, L2SPRatios())

	off1, ok := r.Allocate(8, 8)
	if !ok {
		t.Fatal("Allocate(8, 8) failed")
	}
	r.Deallocate(off1, 8, 8)
	off2, ok := r.Allocate(8, 8)
	if !ok {
		t.Fatal("Allocate(8, 8) after Deallocate failed")
	}
	if off1 != off2 {
		t.Fatalf("slab free list did not reuse offset %d, got %d", off1, off2)
	}
}

func TestResourceBumpRangeReusedFromFreelist(t *testing.T) {
	r := NewResource(0, 1<<20, MainRatios())

	off, ok := r.Allocate(1024, 16)
	if !ok {
		t.Fatal("bump Allocate(1024, 16) failed")
	}
	r.Deallocate(off, 1024, 16)

	off2, ok := r.Allocate(1024, 16)
	if !ok {
		t.Fatal("Allocate after freeing a bump range failed")
	}
	if off2 != off {
		t.Fatalf("freelist did not reuse the bump range: got %d, want %d", off2, off)
	}
}

func TestResourceBumpAllocationsDoNotOverlap(t *testing.T) {
	// A misaligned cursor (off=1) followed by an allocation whose aligned
	// size exceeds its raw size used to leave the bump cursor short of the
	// actually-used range, letting the next allocation hand out an offset
	// inside the previous one's [p, p+bytes) span.
	r := NewResource(0, 1<<20, []RatioBreakdown{})
	r.bump.cur = 1

	off1, ok := r.Allocate(5, 16)
	if !ok {
		t.Fatal("Allocate(5, 16) failed")
	}
	if off1%16 != 0 {
		t.Fatalf("off1 = %d is not 16-aligned", off1)
	}

	off2, ok := r.Allocate(8, 8)
	if !ok {
		t.Fatal("Allocate(8, 8) failed")
	}
	if off2 < off1+5 {
		t.Fatalf("off2 = %d overlaps [off1, off1+5) = [%d, %d)", off2, off1, off1+5)
	}
}

func TestResourceAllocateFailsWhenExhausted(t *testing.T) {
	r := NewResource(0, 256, []RatioBreakdown{{Size: 8, Ratio: 1.0}})
	var offs []uint64
	for {
		off, ok := r.Allocate(8, 8)
		if !ok {
			break
		}
		offs = append(offs, off)
		if len(offs) > 1000 {
			t.Fatal("Allocate never reported exhaustion")
		}
	}
	if len(offs) == 0 {
		t.Fatal("expected at least one successful allocation before exhaustion")
	}
}

func TestTierReadWriteRoundTrip(t *testing.T) {
	tier := NewTier(256)
	tier.BeginDynamic(L2SPRatios())

	if status := tier.Write(0, []byte{1, 2, 3, 4}); !status.Ok() {
		t.Fatalf("Write failed: %v", status)
	}
	got, status := tier.Read(0, 4)
	if !status.Ok() {
		t.Fatalf("Read failed: %v", status)
	}
	want := []byte{1, 2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Read()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestTierReadOutOfBounds(t *testing.T) {
	tier := NewTier(16)
	tier.BeginDynamic(L2SPRatios())
	if _, status := tier.Read(10, 100); status.Ok() {
		t.Fatal("out-of-bounds Read should fail")
	}
}
