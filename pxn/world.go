// Package pxn is the glue layer: World threads one PXN's memory tiers,
// pod, mesh endpoint and termination counters together, implements
// locality.Local (atomics/gptr's local-dispatch surface), exec.Local
// (execute_on's pod/counters surface) and transport.Responder (answering
// inbound active messages), and drives its cp.CP through power-on,
// run and power-off. Grounded on spec.md §9's note that the runtime
// needs exactly one object per PXN owning all of this, and on the
// teacher's cluster-bringup shape (ais/earlystart.go wires together a
// target's storage, mem-sys and transport managers before anything else
// can run).
package pxn

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/cmn/nlog"
	"github.com/pando-hammer/pandohammer/core"
	"github.com/pando-hammer/pandohammer/cp"
	"github.com/pando-hammer/pandohammer/exec"
	"github.com/pando-hammer/pandohammer/index"
	"github.com/pando-hammer/pandohammer/memsys"
	"github.com/pando-hammer/pandohammer/term"
	"github.com/pando-hammer/pandohammer/transport"
)

// World is one PXN's complete runtime state.
type World struct {
	node     index.NodeIndex
	pod      *core.Pod
	l2sp     *memsys.Tier
	main     *memsys.Tier
	mesh     *transport.Endpoint
	counters *term.Counters
	barrier  *cp.AllReduce
	cp       *cp.CP
}

// New constructs a PXN's tiers and pod from cfg, registers it with mesh
// under node, and binds a CP that will run entry once every PXN has
// reached the bring-up barrier. barrier is shared by every PXN
// participating in this run (spec.md §4.8's cross-PXN rendezvous).
func New(node index.NodeIndex, pod index.PodIndex, cfg cmn.Config, mesh *transport.Mesh, barrier *cp.AllReduce, entry func() int) *World {
	l2sp := memsys.NewTier(uint64(cfg.L2SPPod))
	l2sp.BeginDynamic(memsys.L2SPRatios())

	main := memsys.NewTier(uint64(cfg.MainNode))
	main.BeginDynamic(memsys.MainRatios())

	p := core.New(pod, int(cfg.NumCores), int(cfg.NumHarts), uint64(cfg.L1SPHart))

	w := &World{
		node:     node,
		pod:      p,
		l2sp:     l2sp,
		main:     main,
		counters: &term.Counters{},
		barrier:  barrier,
	}
	w.mesh = mesh.Register(node, w)
	w.cp = cp.New(cp.Config{Node: node, Pod: p, Entry: entry}, barrier)
	return w
}

// PowerOn brings this PXN's pod up and rendezvouses at the bring-up
// barrier (spec.md §4.8).
func (w *World) PowerOn() { w.cp.PowerOn() }

// Run invokes the entry point, drives termination detection, and
// rendezvouses at the exit barrier before returning the entry point's
// result.
func (w *World) Run() int {
	return w.cp.Run(func() {
		term.NewDetector(w.counters).WaitAll(w.barrier.Sum)
	})
}

// PowerOff tears the pod down and deregisters from the mesh.
func (w *World) PowerOff(mesh *transport.Mesh) {
	w.cp.PowerOff()
	mesh.Deregister(w.node)
}

// --- locality.Local ---

// NodeIndex returns this PXN's own node index.
func (w *World) NodeIndex() index.NodeIndex { return w.node }

// Mesh returns this PXN's endpoint on the cross-PXN transport.
func (w *World) Mesh() *transport.Endpoint { return w.mesh }

func (w *World) tierFor(a addr.GlobalAddress) (*memsys.Tier, uint64, cmn.Status) {
	offset, err := addr.OffsetOf(a)
	if err != nil {
		return nil, 0, cmn.InvalidValue
	}
	switch addr.TierOf(a) {
	case addr.L2SP:
		return w.l2sp, offset, cmn.Success
	case addr.Main:
		return w.main, offset, cmn.Success
	default:
		// L1SP is per-hart scratchpad, not tier-managed (see memsys.Tier's
		// doc comment); no global operation targets it through World.
		return nil, 0, cmn.InvalidValue
	}
}

// ReadLocal copies n bytes starting at a, which must be local.
func (w *World) ReadLocal(a addr.GlobalAddress, n int) ([]byte, cmn.Status) {
	tier, offset, status := w.tierFor(a)
	if !status.Ok() {
		return nil, status
	}
	return tier.Read(offset, n)
}

// WriteLocal copies data into a, which must be local.
func (w *World) WriteLocal(a addr.GlobalAddress, data []byte) cmn.Status {
	tier, offset, status := w.tierFor(a)
	if !status.Ok() {
		return status
	}
	return tier.Write(offset, data)
}

// AtomicRMWLocal applies fn under the owning tier's lock and returns the
// bytes observed immediately before the update.
func (w *World) AtomicRMWLocal(a addr.GlobalAddress, n int, fn func(cur []byte) []byte) ([]byte, cmn.Status) {
	tier, offset, status := w.tierFor(a)
	if !status.Ok() {
		return nil, status
	}
	var old []byte
	result := cmn.Success
	tier.WithLock(func(bytes []byte) {
		if offset+uint64(n) > uint64(len(bytes)) {
			result = cmn.MemoryError
			return
		}
		old = make([]byte, n)
		copy(old, bytes[offset:offset+uint64(n)])
		copy(bytes[offset:offset+uint64(n)], fn(old))
	})
	return old, result
}

// --- memory resources (C3/C4) ---

// Allocate reserves bytes-byte, align-aligned dynamic storage (C3) out of
// this PXN's own tier and returns the resulting global address. A PXN
// only owns its own tiers, so unlike load/store/atomics/execute_on this
// is never itself a remote operation (spec.md §6's allocate_memory<T>
// names no place parameter for the node it allocates on — the typed
// AllocateMemory wrapper in alloc.go is the caller-facing form of this).
func (w *World) Allocate(tier addr.Tier, bytes, align uint64) (addr.GlobalAddress, cmn.Status) {
	t, ok := w.tierByKind(tier)
	if !ok {
		return 0, cmn.InvalidValue
	}
	offset, ok := t.Allocate(bytes, align)
	if !ok {
		return 0, cmn.BadAlloc
	}
	a, ok := w.encode(tier, offset)
	if !ok {
		return 0, cmn.InvalidValue
	}
	return a, cmn.Success
}

// Deallocate returns a dynamic allocation to its owning tier's resource.
func (w *World) Deallocate(a addr.GlobalAddress, bytes, align uint64) cmn.Status {
	tier, offset, status := w.tierFor(a)
	if !status.Ok() {
		return status
	}
	tier.Deallocate(offset, bytes, align)
	return cmn.Success
}

// ReserveSpecific reserves size bytes of zero-initialized, fixed-offset
// storage (C4) in this PXN's tier, before dynamic allocation begins for
// that tier (spec.md §4.4's reserve_zero_init_l2sp/…_main).
func (w *World) ReserveSpecific(tier addr.Tier, size, align uint64) (addr.GlobalAddress, cmn.Status) {
	t, ok := w.tierByKind(tier)
	if !ok {
		return 0, cmn.InvalidValue
	}
	offset, status := t.ReserveSpecific(size, align)
	if !status.Ok() {
		return 0, status
	}
	a, ok := w.encode(tier, offset)
	if !ok {
		return 0, cmn.InvalidValue
	}
	return a, cmn.Success
}

// tierByKind resolves which of this PXN's two dynamically-managed tiers
// (L2SP, Main) a Tier value names. L1SP is per-hart scratchpad, not
// tier-managed (see memsys.Tier's doc comment), so it has no dynamic
// allocator to resolve to.
func (w *World) tierByKind(tier addr.Tier) (*memsys.Tier, bool) {
	switch tier {
	case addr.L2SP:
		return w.l2sp, true
	case addr.Main:
		return w.main, true
	default:
		return nil, false
	}
}

// encode builds the global address for an offset this World just
// reserved or allocated within the given tier, using this PXN's own node
// (and, for L2SP, its one pod).
func (w *World) encode(tier addr.Tier, offset uint64) (addr.GlobalAddress, bool) {
	switch tier {
	case addr.L2SP:
		return addr.EncodeL2SP(w.node, w.pod.Index, offset), true
	case addr.Main:
		return addr.EncodeMain(w.node, offset), true
	default:
		return 0, false
	}
}

// --- exec.Local ---

// Pod returns this PXN's one pod (spec.md §9's single-pod-per-PXN
// simplification).
func (w *World) Pod() *core.Pod { return w.pod }

// Counters returns this PXN's termination counters.
func (w *World) Counters() *term.Counters { return w.counters }

// --- transport.Responder ---

// HandleLoad answers a remote load.
func (w *World) HandleLoad(a addr.GlobalAddress, n int) ([]byte, cmn.Status) {
	return w.ReadLocal(a, n)
}

// HandleStore answers a remote store.
func (w *World) HandleStore(a addr.GlobalAddress, data []byte) cmn.Status {
	return w.WriteLocal(a, data)
}

// HandleAtomicLoad answers a remote atomic_load.
func (w *World) HandleAtomicLoad(a addr.GlobalAddress, dt transport.Datatype) (uint64, cmn.Status) {
	buf, status := w.ReadLocal(a, dt.Bytes())
	if !status.Ok() {
		return 0, status
	}
	return wireDecode(buf), cmn.Success
}

// HandleAtomicStore answers a remote atomic_store.
func (w *World) HandleAtomicStore(a addr.GlobalAddress, dt transport.Datatype, v uint64) cmn.Status {
	return w.WriteLocal(a, wireEncode(v, dt.Bytes()))
}

// HandleAtomicCAS answers a remote atomic_compare_exchange, returning the
// value observed before the (possible) swap.
func (w *World) HandleAtomicCAS(a addr.GlobalAddress, dt transport.Datatype, expected, desired uint64) (uint64, cmn.Status) {
	old, status := w.AtomicRMWLocal(a, dt.Bytes(), func(cur []byte) []byte {
		if wireDecode(cur) == expected {
			return wireEncode(desired, dt.Bytes())
		}
		return cur
	})
	if !status.Ok() {
		return 0, status
	}
	return wireDecode(old), cmn.Success
}

// HandleAtomicFetchAdd answers a remote atomic_fetch_add/atomic_increment.
func (w *World) HandleAtomicFetchAdd(a addr.GlobalAddress, dt transport.Datatype, delta uint64) (uint64, cmn.Status) {
	old, status := w.AtomicRMWLocal(a, dt.Bytes(), func(cur []byte) []byte {
		return wireEncode(wireDecode(cur)+delta, dt.Bytes())
	})
	if !status.Ok() {
		return 0, status
	}
	return wireDecode(old), cmn.Success
}

// HandleAtomicFetchSub answers a remote atomic_fetch_sub/atomic_decrement.
// spec.md §4.10: decrement is always implemented as a negated fetch_add
// on the responder side.
func (w *World) HandleAtomicFetchSub(a addr.GlobalAddress, dt transport.Datatype, delta uint64) (uint64, cmn.Status) {
	old, status := w.AtomicRMWLocal(a, dt.Bytes(), func(cur []byte) []byte {
		return wireEncode(wireDecode(cur)-delta, dt.Bytes())
	})
	if !status.Ok() {
		return 0, status
	}
	return wireDecode(old), cmn.Success
}

// HandleRequest answers a remote execute_on: payload is the 8-byte task
// ID registered by exec.Register on the sender side (this is one process,
// so the closure itself is reachable by ID rather than needing a
// cross-address-space serialization format).
func (w *World) HandleRequest(payload []byte) cmn.Status {
	if len(payload) < 8 {
		nlog.Warningf("pxn: node %d received undersized request payload (%d bytes)", w.node.ID, len(payload))
		return cmn.InvalidValue
	}
	id := wireDecode(payload[:8])
	return exec.Dispatch(w.pod, w.counters, id)
}
