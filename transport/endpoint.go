package transport

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/index"
)

// Endpoint is a registered node's handle onto the mesh: it knows how to
// address itself in outgoing messages and owns the pending-request table
// replies are matched against. atomics, gptr and exec hold one Endpoint
// per PXN and call its Send* methods rather than talking to Mesh
// directly.
type Endpoint struct {
	ep *endpoint
}

// Node returns this endpoint's own node index.
func (e *Endpoint) Node() index.NodeIndex { return e.ep.node }

func (e *Endpoint) registerHandle(h handle) HandlePtr {
	id := e.ep.pending.register(h)
	return HandlePtr{Node: e.ep.node, ID: id}
}

// SendLoad issues a remote load (spec.md §4.5's load kind) and returns
// the handle the caller should yield_until(Ready()) on.
func (e *Endpoint) SendLoad(to index.NodeIndex, a addr.GlobalAddress, n int) (*LoadHandle, error) {
	h := NewLoadHandle(n)
	hp := e.registerHandle(h)
	err := e.ep.mesh.send(to, Message{Kind: KindLoad, From: e.ep.node, Handle: hp, Addr: a, Bytes: n})
	return h, err
}

// SendStore issues a remote store carrying data as its owning payload.
func (e *Endpoint) SendStore(to index.NodeIndex, a addr.GlobalAddress, data []byte) (*AckHandle, error) {
	h := NewAckHandle()
	hp := e.registerHandle(h)
	payload := make([]byte, len(data))
	copy(payload, data)
	err := e.ep.mesh.send(to, Message{Kind: KindStore, From: e.ep.node, Handle: hp, Addr: a, Payload: payload})
	return h, err
}

// SendAtomicLoad issues a remote atomic_load.
func (e *Endpoint) SendAtomicLoad(to index.NodeIndex, a addr.GlobalAddress, dt Datatype) (*ValueHandle, error) {
	h := NewValueHandle()
	hp := e.registerHandle(h)
	err := e.ep.mesh.send(to, Message{Kind: KindAtomicLoad, From: e.ep.node, Handle: hp, Addr: a, Dtype: dt})
	return h, err
}

// SendAtomicStore issues a remote atomic_store of value v.
func (e *Endpoint) SendAtomicStore(to index.NodeIndex, a addr.GlobalAddress, dt Datatype, v uint64) (*AckHandle, error) {
	h := NewAckHandle()
	hp := e.registerHandle(h)
	err := e.ep.mesh.send(to, Message{Kind: KindAtomicStore, From: e.ep.node, Handle: hp, Addr: a, Dtype: dt, Value: v})
	return h, err
}

// SendAtomicCAS issues a remote atomic_compare_exchange. The handle's
// value is the value observed by the responder; the initiator compares
// it against expected itself (spec.md §4.10: "a non-weak compare-exchange
// returning the observed value").
func (e *Endpoint) SendAtomicCAS(to index.NodeIndex, a addr.GlobalAddress, dt Datatype, expected, desired uint64) (*ValueHandle, error) {
	h := NewValueHandle()
	hp := e.registerHandle(h)
	err := e.ep.mesh.send(to, Message{Kind: KindAtomicCAS, From: e.ep.node, Handle: hp, Addr: a, Dtype: dt, Expected: expected, Value: desired})
	return h, err
}

// SendAtomicFetchAdd issues a remote atomic_fetch_add/atomic_increment.
func (e *Endpoint) SendAtomicFetchAdd(to index.NodeIndex, a addr.GlobalAddress, dt Datatype, delta uint64, increment bool) (*ValueHandle, error) {
	h := NewValueHandle()
	hp := e.registerHandle(h)
	kind := KindAtomicFetchAdd
	if increment {
		kind = KindAtomicIncrement
	}
	err := e.ep.mesh.send(to, Message{Kind: kind, From: e.ep.node, Handle: hp, Addr: a, Dtype: dt, Value: delta})
	return h, err
}

// SendAtomicFetchSub issues a remote atomic_fetch_sub/atomic_decrement.
// spec.md §4.10: "atomic_decrement is implemented as fetch_add with the
// negated value when a native decrement is unavailable" — this rewrite's
// responder subtracts delta in HandleAtomicFetchSub, which is the same
// thing in wrapping arithmetic. Decrement and fetch_sub travel as two
// message kinds; the responder handles and logs both identically.
func (e *Endpoint) SendAtomicFetchSub(to index.NodeIndex, a addr.GlobalAddress, dt Datatype, delta uint64, decrement bool) (*ValueHandle, error) {
	h := NewValueHandle()
	hp := e.registerHandle(h)
	kind := KindAtomicFetchSub
	if decrement {
		kind = KindAtomicDecrement
	}
	err := e.ep.mesh.send(to, Message{Kind: kind, From: e.ep.node, Handle: hp, Addr: a, Dtype: dt, Value: delta})
	return h, err
}

// SendRequest issues a generic remote procedure call (spec.md's
// `request` kind): payload is an opaque serialized closure, invoked by
// the responder's HandleRequest.
func (e *Endpoint) SendRequest(to index.NodeIndex, payload []byte) (*AckHandle, error) {
	h := NewAckHandle()
	hp := e.registerHandle(h)
	err := e.ep.mesh.send(to, Message{Kind: KindRequest, From: e.ep.node, Handle: hp, Payload: payload})
	return h, err
}
