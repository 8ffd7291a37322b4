package transport

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/cmn/cos"
	"github.com/pando-hammer/pandohammer/cmn/debug"
	"github.com/pando-hammer/pandohammer/cmn/nlog"
	"github.com/pando-hammer/pandohammer/index"
)

// pollInterval bounds how long an endpoint's background poller blocks on
// its inbox before checking for shutdown, mirroring the teacher's
// transport collector's tickUnit-driven select loop.
const pollInterval = 2 * time.Millisecond

// Responder is implemented by the per-PXN world object (pxn.World) to
// answer active messages that arrive at its node. Each Handle* method
// mirrors the corresponding local operation's semantics (spec.md §4.5:
// "Responder semantics mirror the local implementations of the ops").
type Responder interface {
	HandleLoad(a addr.GlobalAddress, n int) ([]byte, cmn.Status)
	HandleStore(a addr.GlobalAddress, data []byte) cmn.Status
	HandleAtomicLoad(a addr.GlobalAddress, dt Datatype) (uint64, cmn.Status)
	HandleAtomicStore(a addr.GlobalAddress, dt Datatype, v uint64) cmn.Status
	HandleAtomicCAS(a addr.GlobalAddress, dt Datatype, expected, desired uint64) (uint64, cmn.Status)
	HandleAtomicFetchAdd(a addr.GlobalAddress, dt Datatype, delta uint64) (uint64, cmn.Status)
	HandleAtomicFetchSub(a addr.GlobalAddress, dt Datatype, delta uint64) (uint64, cmn.Status)
	HandleRequest(payload []byte) cmn.Status
}

// Mesh is the in-process transport backend (C5): the one concrete
// transport this specification requires (spec.md §1 leaves the choice
// open; an in-process mesh is sufficient to exercise every ordering and
// completion-handle invariant spec.md asks for without real sockets).
type Mesh struct {
	mu    sync.RWMutex
	nodes map[int64]*endpoint
}

// NewMesh returns an empty mesh. PXNs register themselves with Register
// as they power on.
func NewMesh() *Mesh {
	return &Mesh{nodes: make(map[int64]*endpoint)}
}

type endpoint struct {
	node     index.NodeIndex
	responder Responder
	inbox    chan Message
	pending  *handleTable
	stopCh   *cos.StopCh
	wg       sync.WaitGroup
	mesh     *Mesh
	runID    string
}

// Register attaches a PXN to the mesh under its node index and starts
// its background polling task (spec.md §4.5: "A background polling task
// drives the transport until shutdown"). The returned Endpoint is this
// node's handle for sending and for registering pending requests.
func (m *Mesh) Register(node index.NodeIndex, r Responder) *Endpoint {
	ep := &endpoint{
		node:      node,
		responder: r,
		inbox:     make(chan Message, 256),
		pending:   newHandleTable(),
		stopCh:    cos.NewStopCh(),
		mesh:      m,
		runID:     uuid.NewString()[:8],
	}
	m.mu.Lock()
	m.nodes[node.ID] = ep
	m.mu.Unlock()

	ep.wg.Add(1)
	go ep.poll()
	return &Endpoint{ep: ep}
}

// Deregister stops the endpoint's poller and removes it from the mesh,
// per spec.md §4.5's "signalled to stop before the CP exits".
func (m *Mesh) Deregister(node index.NodeIndex) {
	m.mu.Lock()
	ep, ok := m.nodes[node.ID]
	delete(m.nodes, node.ID)
	m.mu.Unlock()
	if !ok {
		return
	}
	ep.stopCh.Close()
	ep.wg.Wait()
}

func (m *Mesh) send(to index.NodeIndex, msg Message) error {
	m.mu.RLock()
	ep, ok := m.nodes[to.ID]
	m.mu.RUnlock()
	if !ok {
		return errors.Errorf("transport: no endpoint registered for node %d", to.ID)
	}
	// Back-pressure: block rather than drop. A real fabric would apply
	// flow control here; spec.md treats a send failure as catastrophic
	// (§7), so blocking-until-room is the conservative choice over
	// silently dropping an active message.
	ep.inbox <- msg
	return nil
}

func (ep *endpoint) poll() {
	defer ep.wg.Done()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case msg := <-ep.inbox:
			ep.dispatch(msg)
		case <-ticker.C:
			// idle tick; nothing to do, keeps the select responsive to
			// stopCh without busy-looping.
		case <-ep.stopCh.Listen():
			nlog.Infof("transport[%s]: node %d poller stopping", ep.runID, ep.node.ID)
			return
		}
	}
}

func (ep *endpoint) dispatch(msg Message) {
	switch msg.Kind {
	case KindLoadAck, KindAck, KindValueAck:
		ep.pending.fulfill(msg.Handle.ID, msg)
		return
	}

	reply := ep.responder

	switch msg.Kind {
	case KindLoad:
		data, status := reply.HandleLoad(msg.Addr, msg.Bytes)
		if !status.Ok() {
			nlog.Warningf("transport: load at %x failed: %s", msg.Addr, status)
		}
		ep.mesh.send(msg.From, Message{Kind: KindLoadAck, From: ep.node, Handle: msg.Handle, Payload: data})
	case KindStore:
		status := reply.HandleStore(msg.Addr, msg.Payload)
		if !status.Ok() {
			nlog.Warningf("transport: store at %x failed: %s", msg.Addr, status)
		}
		ep.mesh.send(msg.From, Message{Kind: KindAck, From: ep.node, Handle: msg.Handle})
	case KindAtomicLoad:
		v, status := reply.HandleAtomicLoad(msg.Addr, msg.Dtype)
		logAtomicErr(status, "atomic_load", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindValueAck, From: ep.node, Handle: msg.Handle, Value: v})
	case KindAtomicStore:
		status := reply.HandleAtomicStore(msg.Addr, msg.Dtype, msg.Value)
		logAtomicErr(status, "atomic_store", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindAck, From: ep.node, Handle: msg.Handle})
	case KindAtomicCAS:
		observed, status := reply.HandleAtomicCAS(msg.Addr, msg.Dtype, msg.Expected, msg.Value)
		logAtomicErr(status, "atomic_compare_exchange", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindValueAck, From: ep.node, Handle: msg.Handle, Value: observed})
	case KindAtomicIncrement, KindAtomicFetchAdd:
		old, status := reply.HandleAtomicFetchAdd(msg.Addr, msg.Dtype, msg.Value)
		logAtomicErr(status, "atomic_fetch_add", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindValueAck, From: ep.node, Handle: msg.Handle, Value: old})
	case KindAtomicDecrement, KindAtomicFetchSub:
		old, status := reply.HandleAtomicFetchSub(msg.Addr, msg.Dtype, msg.Value)
		logAtomicErr(status, "atomic_fetch_sub", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindValueAck, From: ep.node, Handle: msg.Handle, Value: old})
	case KindRequest:
		status := reply.HandleRequest(msg.Payload)
		logAtomicErr(status, "request", msg.Addr)
		ep.mesh.send(msg.From, Message{Kind: KindAck, From: ep.node, Handle: msg.Handle})
	default:
		debug.Assertf(false, "transport: unhandled message kind %v", msg.Kind)
	}
}

func logAtomicErr(status cmn.Status, op string, a interface{}) {
	if !status.Ok() {
		nlog.Warningf("transport: %s at %v failed: %s", op, a, status)
	}
}
