// Package transport implements the cross-PXN active-message fabric (C5):
// one message kind per remote operation, completion handles, and the
// background polling task that drives replies. Grounded on spec.md §4.5
// and, for the collector/poller shape, the teacher's transport/collect.go
// (a ticker + control-channel + stop-channel select loop driving a
// background stream collector).
package transport

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/index"
)

// Kind names an active-message kind (spec.md §4.5).
type Kind uint8

const (
	KindRequest Kind = iota
	KindLoad
	KindStore
	KindAtomicLoad
	KindAtomicStore
	KindAtomicCAS
	KindAtomicIncrement
	KindAtomicDecrement
	KindAtomicFetchAdd
	KindAtomicFetchSub

	// Reply kinds.
	KindLoadAck
	KindAck
	KindValueAck
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindLoad:
		return "load"
	case KindStore:
		return "store"
	case KindAtomicLoad:
		return "atomic_load"
	case KindAtomicStore:
		return "atomic_store"
	case KindAtomicCAS:
		return "atomic_compare_exchange"
	case KindAtomicIncrement:
		return "atomic_increment"
	case KindAtomicDecrement:
		return "atomic_decrement"
	case KindAtomicFetchAdd:
		return "atomic_fetch_add"
	case KindAtomicFetchSub:
		return "atomic_fetch_sub"
	case KindLoadAck:
		return "load_ack"
	case KindAck:
		return "ack"
	case KindValueAck:
		return "value_ack"
	default:
		return "unknown"
	}
}

// Datatype tags the width/signedness of an atomic operation's operand,
// per spec.md §9's "dynamic dispatch over value handles" note: represent
// the datatype as a tagged variant, dispatch as a match/switch.
type Datatype uint8

const (
	I8 Datatype = iota
	U8
	I16
	U16
	I32
	U32
	I64
	U64
)

// Bytes returns the width in bytes of dt.
func (dt Datatype) Bytes() int {
	switch dt {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32:
		return 4
	case I64, U64:
		return 8
	default:
		return 8
	}
}

// SupportsCAS reports whether dt is one of the 32/64-bit widths spec.md
// §4.10 restricts CAS and the arithmetic variants to.
func (dt Datatype) SupportsCAS() bool {
	switch dt {
	case I32, U32, I64, U64:
		return true
	default:
		return false
	}
}

// HandlePtr is the two-word "handle pointer" every request carries so the
// reply can be routed back to the correct stack-allocated handle on the
// initiator (spec.md §4.5, §9's "cyclic graphs of tasks and handles").
type HandlePtr struct {
	Node index.NodeIndex
	ID   uint64
}

// Message is one active message on the wire. Only the fields relevant to
// Kind are populated; the rest are zero. Payload carries the medium
// variable-size data (store's raw bytes, request's serialized closure).
type Message struct {
	Kind    Kind
	From    index.NodeIndex
	Handle  HandlePtr
	Addr    addr.GlobalAddress
	Bytes   int      // load's requested byte_count
	Dtype   Datatype // atomic ops
	Value   uint64   // atomic_store/cas-desired/inc-dec/fadd-fsub operand
	Expected uint64  // atomic_cas
	Payload []byte   // store's raw bytes, load_ack's reply bytes, request's serialized closure
}
