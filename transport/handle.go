package transport

import (
	"sync"

	"go.uber.org/atomic"
)

// handle is satisfied by every completion handle kind (LoadHandle,
// AckHandle, ValueHandle) so the pending-request table can fulfill
// whichever one a reply's HandlePtr refers to without a type switch at
// the call site (spec.md §9: represent with an index into an arena of
// handles, never a two-way pointer between task and handle).
type handle interface {
	fulfill(msg Message)
}

// LoadHandle is the completion object for a remote load (spec.md §3):
// the responder writes the reply payload into dst then flips ready with
// release ordering.
type LoadHandle struct {
	ready atomic.Bool
	dst   []byte
}

// NewLoadHandle returns a not-yet-ready handle that will receive n bytes.
func NewLoadHandle(n int) *LoadHandle {
	return &LoadHandle{dst: make([]byte, n)}
}

// Ready reports whether the reply has arrived.
func (h *LoadHandle) Ready() bool { return h.ready.Load() }

// Bytes returns the received payload. Only valid once Ready is true.
func (h *LoadHandle) Bytes() []byte { return h.dst }

func (h *LoadHandle) fulfill(msg Message) {
	copy(h.dst, msg.Payload)
	h.ready.Store(true)
}

// AckHandle is a boolean one-shot completion object, used by store,
// atomic_store and request, where the initiator only needs to know the
// remote side is done.
type AckHandle struct {
	ready atomic.Bool
}

// NewAckHandle returns a not-yet-ready ack handle.
func NewAckHandle() *AckHandle { return &AckHandle{} }

// Ready reports whether the ack has arrived.
func (h *AckHandle) Ready() bool { return h.ready.Load() }

func (h *AckHandle) fulfill(Message) { h.ready.Store(true) }

// ValueHandle is a typed single-value completion object for atomic_load,
// atomic_cas (the observed prior value) and the fetch_* operations (the
// value immediately before the op). The wire only ever carries a 64-bit
// word regardless of the logical datatype (spec.md's widths all fit in
// 64 bits); callers narrow it to their T after Ready.
type ValueHandle struct {
	ready atomic.Bool
	value uint64
}

// NewValueHandle returns a not-yet-ready value handle.
func NewValueHandle() *ValueHandle { return &ValueHandle{} }

// Ready reports whether the value has arrived.
func (h *ValueHandle) Ready() bool { return h.ready.Load() }

// Value returns the received 64-bit word. Only valid once Ready is true.
func (h *ValueHandle) Value() uint64 { return h.value }

func (h *ValueHandle) fulfill(msg Message) {
	h.value = msg.Value
	h.ready.Store(true)
}

// handleTable is the initiator-side arena of pending requests, indexed
// by the two-word HandlePtr every request carries and every reply
// echoes back (spec.md §4.5, §9). One table exists per registered node.
type handleTable struct {
	mu      sync.Mutex
	next    uint64
	entries map[uint64]handle
}

func newHandleTable() *handleTable {
	return &handleTable{entries: make(map[uint64]handle)}
}

func (t *handleTable) register(h handle) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := t.next
	t.entries[id] = h
	return id
}

func (t *handleTable) fulfill(id uint64, msg Message) {
	t.mu.Lock()
	h, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	if ok {
		h.fulfill(msg)
	}
}
