package atomics

import (
	"encoding/binary"

	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/locality"
	"github.com/pando-hammer/pandohammer/transport"
)

// Integer is every width spec.md §4.10 supports for load/store.
type Integer interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// Arith is the 32/64-bit subset spec.md §4.10 restricts CAS and the
// arithmetic variants (increment/decrement/fetch_add/fetch_sub) to.
type Arith interface {
	~int32 | ~uint32 | ~int64 | ~uint64
}

func datatypeOf[T Integer]() transport.Datatype {
	var zero T
	switch any(zero).(type) {
	case int8:
		return transport.I8
	case uint8:
		return transport.U8
	case int16:
		return transport.I16
	case uint16:
		return transport.U16
	case int32:
		return transport.I32
	case uint32:
		return transport.U32
	case int64:
		return transport.I64
	default:
		return transport.U64
	}
}

func widthOf[T Integer]() int { return datatypeOf[T]().Bytes() }

// encode lays out v's bit pattern little-endian, truncated to its
// width — the same "concatenated fields in declared order, no padding"
// shape spec.md §4.5 specifies for payloads.
func encode[T Integer](v T) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return buf[:widthOf[T]()]
}

func decode[T Integer](b []byte) T {
	var buf [8]byte
	copy(buf[:], b)
	return T(binary.LittleEndian.Uint64(buf[:]))
}

// Load performs atomic_load (spec.md §4.10): a plain read locally, or a
// remote active message suspended on via yield_until.
func Load[T Integer](loc locality.Local, h *hart.Context, p addr.GlobalAddress, order Order) (T, cmn.Status) {
	if locality.IsLocal(loc, p) {
		buf, status := loc.ReadLocal(p, widthOf[T]())
		h.Yield()
		if !status.Ok() {
			return 0, status
		}
		return decode[T](buf), cmn.Success
	}
	node, err := addr.NodeOf(p)
	if err != nil {
		return 0, cmn.InvalidValue
	}
	vh, sendErr := loc.Mesh().SendAtomicLoad(node, p, datatypeOf[T]())
	if sendErr != nil {
		return 0, cmn.Error
	}
	h.YieldUntil(vh.Ready)
	_ = order // post-fence (acquire side) is satisfied by YieldUntil's happens-before on Ready
	return T(vh.Value()), cmn.Success
}

// Store performs atomic_store.
func Store[T Integer](loc locality.Local, h *hart.Context, p addr.GlobalAddress, v T, order Order) cmn.Status {
	if locality.IsLocal(loc, p) {
		status := loc.WriteLocal(p, encode(v))
		h.Yield()
		return status
	}
	node, err := addr.NodeOf(p)
	if err != nil {
		return cmn.InvalidValue
	}
	ah, sendErr := loc.Mesh().SendAtomicStore(node, p, datatypeOf[T](), uint64(v))
	if sendErr != nil {
		return cmn.Error
	}
	_ = order // pre-fence (release side) is satisfied by program order before SendAtomicStore
	h.YieldUntil(ah.Ready)
	return cmn.Success
}

func localRMW[T Integer](loc locality.Local, p addr.GlobalAddress, fn func(cur T) T) (old T, status cmn.Status) {
	_, status = loc.AtomicRMWLocal(p, widthOf[T](), func(cur []byte) []byte {
		old = decode[T](cur)
		return encode(fn(old))
	})
	return old, status
}

// CAS performs atomic_compare_exchange: a non-weak compare-exchange that
// reports the observed prior value and whether it matched expected.
func CAS[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, expected, desired T, order Order) (observed T, swapped bool, status cmn.Status) {
	if locality.IsLocal(loc, p) {
		observed, status = localRMW[T](loc, p, func(cur T) T {
			if cur == expected {
				swapped = true
				return desired
			}
			return cur
		})
		h.Yield()
		return observed, swapped, status
	}
	node, err := addr.NodeOf(p)
	if err != nil {
		return 0, false, cmn.InvalidValue
	}
	vh, sendErr := loc.Mesh().SendAtomicCAS(node, p, datatypeOf[T](), uint64(expected), uint64(desired))
	if sendErr != nil {
		return 0, false, cmn.Error
	}
	_ = order
	h.YieldUntil(vh.Ready)
	observed = T(vh.Value())
	return observed, observed == expected, cmn.Success
}

func localFetchAdd[T Arith](loc locality.Local, p addr.GlobalAddress, delta T) (T, cmn.Status) {
	return localRMW[T](loc, p, func(cur T) T { return cur + delta })
}

func localFetchSub[T Arith](loc locality.Local, p addr.GlobalAddress, delta T) (T, cmn.Status) {
	return localRMW[T](loc, p, func(cur T) T { return cur - delta })
}

func remoteFetchAdd[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, delta T, asIncrement bool) (T, cmn.Status) {
	node, err := addr.NodeOf(p)
	if err != nil {
		return 0, cmn.InvalidValue
	}
	vh, sendErr := loc.Mesh().SendAtomicFetchAdd(node, p, datatypeOf[T](), uint64(delta), asIncrement)
	if sendErr != nil {
		return 0, cmn.Error
	}
	h.YieldUntil(vh.Ready)
	return T(vh.Value()), cmn.Success
}

func remoteFetchSub[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, delta T, asDecrement bool) (T, cmn.Status) {
	node, err := addr.NodeOf(p)
	if err != nil {
		return 0, cmn.InvalidValue
	}
	vh, sendErr := loc.Mesh().SendAtomicFetchSub(node, p, datatypeOf[T](), uint64(delta), asDecrement)
	if sendErr != nil {
		return 0, cmn.Error
	}
	h.YieldUntil(vh.Ready)
	return T(vh.Value()), cmn.Success
}

// FetchAdd performs atomic_fetch_add, returning the value immediately
// before the addition.
func FetchAdd[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, delta T, order Order) (T, cmn.Status) {
	if locality.IsLocal(loc, p) {
		old, status := localFetchAdd(loc, p, delta)
		h.Yield()
		return old, status
	}
	_ = order
	return remoteFetchAdd(loc, h, p, delta, false)
}

// FetchSub performs atomic_fetch_sub, returning the value immediately
// before the subtraction.
func FetchSub[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, delta T, order Order) (T, cmn.Status) {
	if locality.IsLocal(loc, p) {
		old, status := localFetchSub(loc, p, delta)
		h.Yield()
		return old, status
	}
	_ = order
	return remoteFetchSub(loc, h, p, delta, false)
}

// Increment performs atomic_increment: fetch_add by exactly 1.
func Increment[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, order Order) (T, cmn.Status) {
	if locality.IsLocal(loc, p) {
		old, status := localFetchAdd[T](loc, p, 1)
		h.Yield()
		return old, status
	}
	_ = order
	return remoteFetchAdd[T](loc, h, p, 1, true)
}

// Decrement performs atomic_decrement. Per spec.md §4.10 it is
// implemented as fetch_add with the negated value wherever a native
// decrement is unavailable — this rewrite's responder always takes that
// path, so Decrement delegates straight to the fetch_sub machinery.
func Decrement[T Arith](loc locality.Local, h *hart.Context, p addr.GlobalAddress, order Order) (T, cmn.Status) {
	if locality.IsLocal(loc, p) {
		old, status := localFetchSub[T](loc, p, 1)
		h.Yield()
		return old, status
	}
	_ = order
	return remoteFetchSub[T](loc, h, p, 1, true)
}
