package addr

import (
	"testing"

	"github.com/pando-hammer/pandohammer/index"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	node := index.NodeIndex{ID: 7}
	pod := index.PodIndex{X: 2, Y: 1}
	core := index.CoreIndex{X: 3, Y: 0}

	tests := []struct {
		name string
		addr GlobalAddress
		tier Tier
	}{
		{"l1sp", EncodeL1SP(node, pod, core, 512), L1SP},
		{"l2sp", EncodeL2SP(node, pod, 1024), L2SP},
		{"main", EncodeMain(node, 1<<20), Main},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierOf(tt.addr); got != tt.tier {
				t.Fatalf("TierOf() = %v, want %v", got, tt.tier)
			}
			gotNode, err := NodeOf(tt.addr)
			if err != nil {
				t.Fatalf("NodeOf() error = %v", err)
			}
			if gotNode != node {
				t.Fatalf("NodeOf() = %v, want %v", gotNode, node)
			}
		})
	}
}

func TestPodAndCoreFields(t *testing.T) {
	node := index.NodeIndex{ID: 3}
	pod := index.PodIndex{X: 5, Y: 6}
	core := index.CoreIndex{X: 1, Y: 2}

	a := EncodeL1SP(node, pod, core, 0)
	gotPod, err := PodOf(a)
	if err != nil || gotPod != pod {
		t.Fatalf("PodOf() = %v, %v, want %v, nil", gotPod, err, pod)
	}
	gotCore, err := CoreOf(a)
	if err != nil || gotCore != core {
		t.Fatalf("CoreOf() = %v, %v, want %v, nil", gotCore, err, core)
	}

	l2 := EncodeL2SP(node, pod, 0)
	if _, err := CoreOf(l2); err == nil {
		t.Fatalf("CoreOf() on an L2SP address should fail")
	}
}

func TestOffsetOfAndWithOffset(t *testing.T) {
	node := index.NodeIndex{ID: 1}
	a := EncodeMain(node, 100)
	off, err := OffsetOf(a)
	if err != nil || off != 100 {
		t.Fatalf("OffsetOf() = %v, %v, want 100, nil", off, err)
	}

	b, err := WithOffset(a, 200)
	if err != nil {
		t.Fatalf("WithOffset() error = %v", err)
	}
	off2, _ := OffsetOf(b)
	if off2 != 200 {
		t.Fatalf("WithOffset() offset = %d, want 200", off2)
	}
	if n, _ := NodeOf(b); n != node {
		t.Fatalf("WithOffset() must preserve the node field")
	}
}

func TestInvalidAddress(t *testing.T) {
	var zero GlobalAddress
	if TierOf(zero) != Unknown {
		t.Fatalf("zero address must decode to Unknown")
	}
	if _, err := NodeOf(zero); err != ErrInvalidAddress {
		t.Fatalf("NodeOf(zero) error = %v, want ErrInvalidAddress", err)
	}
}

func TestL1SPGlobalFlag(t *testing.T) {
	node := index.NodeIndex{ID: 0}
	a := EncodeL1SP(node, index.PodIndex{}, index.CoreIndex{}, 0)
	if !IsGloballyVisible(a) {
		t.Fatalf("EncodeL1SP must set the globally-visible flag")
	}
	if IsGloballyVisible(EncodeMain(node, 0)) {
		t.Fatalf("IsGloballyVisible must be false outside L1SP")
	}
}
