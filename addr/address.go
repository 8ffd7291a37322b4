// Package addr implements the 64-bit global address encoding (C1):
// packing (memory-tier, node, pod, core, offset) into a single word and
// deciding, at decode time, local vs. remote routing. Bit layout is
// transcribed verbatim from original_source/pando-rt's
// include/pando-rt/memory/address_map.hpp; the pod and core fields are
// each split into independent x/y sub-fields exactly as the original does,
// which is consistent with (just more granular than) spec.md §3's
// collapsed pod/core ranges.
package addr

import (
	"github.com/pkg/errors"

	"github.com/pando-hammer/pandohammer/index"
)

// GlobalAddress is the 64-bit encoded handle. The zero value is not a
// valid address (memoryType 0 decodes to Unknown).
type GlobalAddress uint64

var addressMap = struct {
	memoryType bitRange

	l1spNode    bitRange
	l1spPodY    bitRange
	l1spPodX    bitRange
	l1spCoreY   bitRange
	l1spCoreX   bitRange
	l1spGlobal  bitRange
	l1spOffset  bitRange

	l2spNode   bitRange
	l2spPodY   bitRange
	l2spPodX   bitRange
	l2spOffset bitRange

	mainNode   bitRange
	mainOffset bitRange
}{
	memoryType: bitRange{58, 64},

	l1spNode:   bitRange{44, 58},
	l1spPodY:   bitRange{28, 31},
	l1spPodX:   bitRange{25, 28},
	l1spCoreY:  bitRange{22, 25},
	l1spCoreX:  bitRange{19, 22},
	l1spGlobal: bitRange{18, 19},
	l1spOffset: bitRange{0, 18},

	l2spNode:   bitRange{44, 58},
	l2spPodY:   bitRange{28, 31},
	l2spPodX:   bitRange{25, 28},
	l2spOffset: bitRange{0, 25},

	mainNode:   bitRange{44, 58},
	mainOffset: bitRange{0, 44},
}

// Bit widths of the encoded fields, exposed so config validation (cmn
// package) can derive bounds for the environment variables in spec.md §6
// without duplicating the layout.
const (
	NodeIndexBits = 14 // [44, 58)
	PodAxisBits   = 3  // [25, 28) or [28, 31)
	CoreAxisBits  = 3  // [19, 22) or [22, 25)
	L1SPOffsetBits = 18
	L2SPOffsetBits = 25
	MainOffsetBits = 44
)

// ErrInvalidAddress is returned when decoding fails to match a known tier.
var ErrInvalidAddress = errors.New("invalid address: unknown memory tier")

// EncodeL1SP packs a per-hart scratchpad address.
func EncodeL1SP(node index.NodeIndex, pod index.PodIndex, core index.CoreIndex, offset uint64) GlobalAddress {
	var w uint64
	w |= createMask(addressMap.memoryType, uint64(L1SP))
	w |= createMask(addressMap.l1spNode, uint64(node.ID))
	w |= createMask(addressMap.l1spPodX, uint64(pod.X))
	w |= createMask(addressMap.l1spPodY, uint64(pod.Y))
	w |= createMask(addressMap.l1spCoreX, uint64(core.X))
	w |= createMask(addressMap.l1spCoreY, uint64(core.Y))
	w |= createMask(addressMap.l1spGlobal, 1)
	w |= createMask(addressMap.l1spOffset, offset)
	return GlobalAddress(w)
}

// EncodeL2SP packs a per-pod scratchpad address.
func EncodeL2SP(node index.NodeIndex, pod index.PodIndex, offset uint64) GlobalAddress {
	var w uint64
	w |= createMask(addressMap.memoryType, uint64(L2SP))
	w |= createMask(addressMap.l2spNode, uint64(node.ID))
	w |= createMask(addressMap.l2spPodX, uint64(pod.X))
	w |= createMask(addressMap.l2spPodY, uint64(pod.Y))
	w |= createMask(addressMap.l2spOffset, offset)
	return GlobalAddress(w)
}

// EncodeMain packs a per-node main-memory address.
func EncodeMain(node index.NodeIndex, offset uint64) GlobalAddress {
	var w uint64
	w |= createMask(addressMap.memoryType, uint64(Main))
	w |= createMask(addressMap.mainNode, uint64(node.ID))
	w |= createMask(addressMap.mainOffset, offset)
	return GlobalAddress(w)
}

// TierOf returns the memory tier addr decodes to. The zero address
// decodes to Unknown.
func TierOf(a GlobalAddress) Tier {
	t := Tier(readBits(uint64(a), addressMap.memoryType))
	switch t {
	case L1SP, L2SP, Main:
		return t
	default:
		return Unknown
	}
}

// NodeOf returns the node index addr references. Valid for any tier.
func NodeOf(a GlobalAddress) (index.NodeIndex, error) {
	switch TierOf(a) {
	case L1SP:
		return index.NodeIndex{ID: int64(readBits(uint64(a), addressMap.l1spNode))}, nil
	case L2SP:
		return index.NodeIndex{ID: int64(readBits(uint64(a), addressMap.l2spNode))}, nil
	case Main:
		return index.NodeIndex{ID: int64(readBits(uint64(a), addressMap.mainNode))}, nil
	default:
		return index.NodeIndex{}, ErrInvalidAddress
	}
}

// PodOf returns the pod index addr references. Valid for L1SP and L2SP.
func PodOf(a GlobalAddress) (index.PodIndex, error) {
	switch TierOf(a) {
	case L1SP:
		return index.PodIndex{
			X: int8(readBits(uint64(a), addressMap.l1spPodX)),
			Y: int8(readBits(uint64(a), addressMap.l1spPodY)),
		}, nil
	case L2SP:
		return index.PodIndex{
			X: int8(readBits(uint64(a), addressMap.l2spPodX)),
			Y: int8(readBits(uint64(a), addressMap.l2spPodY)),
		}, nil
	default:
		return index.PodIndex{}, ErrInvalidAddress
	}
}

// CoreOf returns the core index addr references. Valid only for L1SP.
func CoreOf(a GlobalAddress) (index.CoreIndex, error) {
	if TierOf(a) != L1SP {
		return index.CoreIndex{}, ErrInvalidAddress
	}
	return index.CoreIndex{
		X: int8(readBits(uint64(a), addressMap.l1spCoreX)),
		Y: int8(readBits(uint64(a), addressMap.l1spCoreY)),
	}, nil
}

// OffsetOf returns the in-tier byte offset addr references.
func OffsetOf(a GlobalAddress) (uint64, error) {
	switch TierOf(a) {
	case L1SP:
		return readBits(uint64(a), addressMap.l1spOffset), nil
	case L2SP:
		return readBits(uint64(a), addressMap.l2spOffset), nil
	case Main:
		return readBits(uint64(a), addressMap.mainOffset), nil
	default:
		return 0, ErrInvalidAddress
	}
}

// IsGloballyVisible reports the L1SP "globally visible" flag. Valid only
// for L1SP addresses.
func IsGloballyVisible(a GlobalAddress) bool {
	return TierOf(a) == L1SP && readBits(uint64(a), addressMap.l1spGlobal) != 0
}

// WithOffset returns a copy of addr with its in-tier offset field
// replaced, implementing pointer arithmetic in units the caller has
// already scaled by sizeof(T) (see gptr.GlobalPtr).
func WithOffset(a GlobalAddress, offset uint64) (GlobalAddress, error) {
	switch TierOf(a) {
	case L1SP:
		node, _ := NodeOf(a)
		pod, _ := PodOf(a)
		core, _ := CoreOf(a)
		return EncodeL1SP(node, pod, core, offset), nil
	case L2SP:
		node, _ := NodeOf(a)
		pod, _ := PodOf(a)
		return EncodeL2SP(node, pod, offset), nil
	case Main:
		node, _ := NodeOf(a)
		return EncodeMain(node, offset), nil
	default:
		return 0, ErrInvalidAddress
	}
}
