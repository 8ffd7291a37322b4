package exec

import (
	"encoding/binary"
	"runtime"

	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/core"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/index"
	"github.com/pando-hammer/pandohammer/locality"
	"github.com/pando-hammer/pandohammer/term"
)

// Local is the surface exec needs from "this PXN" beyond locality.Local's
// node/mesh answers: direct access to the one pod and the one termination
// counters set this node owns. This runtime models one pod per PXN
// (spec.md §9's Open Question; see term.Detector), so exec never needs a
// pod-index lookup table — Pod/Counters always name the same objects.
type Local interface {
	locality.Local
	Pod() *core.Pod
	Counters() *term.Counters
}

// ExecuteOn enqueues fn for execution at place (spec.md §4.9): onto the
// resolved core's queue directly if place names loc's own node, or as a
// KindRequest active message otherwise. place.Core == AnyCore routes to
// the target pod's scheduler column, which redistributes to a worker
// core uniformly (spec.md §3).
func ExecuteOn(loc Local, h *hart.Context, place index.Place, fn func()) cmn.Status {
	if place.Node.IsAny() || place.Node.ID == loc.NodeIndex().ID {
		return enqueueLocal(loc.Pod(), loc.Counters(), h, place.Core, fn)
	}

	id := Register(fn)
	var payload [8]byte
	binary.LittleEndian.PutUint64(payload[:], id)
	_, err := loc.Mesh().SendRequest(place.Node, payload[:])
	if err != nil {
		return cmn.Error
	}
	// Fire-and-forget: the pending ack only confirms the remote side
	// accepted the message, not that the task has run, so ExecuteOn
	// yields once and returns rather than waiting on it.
	h.Yield()
	return cmn.Success
}

func enqueueLocal(pod *core.Pod, counters *term.Counters, h *hart.Context, coreIdx index.CoreIndex, fn func()) cmn.Status {
	c := pod.Resolve(coreIdx)
	if c == nil {
		return cmn.InvalidValue
	}
	counters.IncCreated()
	t := newTask(fn, counters)
	for !c.Queue.TryEnqueue(t.run) {
		h.Yield()
	}
	return cmn.Success
}

// Dispatch is called by the world object's HandleRequest responder
// method when a KindRequest active message arrives: it looks up the
// closure registered under id, increments counters at the moment of
// enqueue (this is the "created" side of termination detection for a
// remotely originated task, since the counters live on the receiving
// PXN, not the sender), and enqueues it through the target pod's
// scheduler column.
func Dispatch(pod *core.Pod, counters *term.Counters, id uint64) cmn.Status {
	fn, ok := take(id)
	if !ok {
		return cmn.InvalidValue
	}
	counters.IncCreated()
	t := newTask(fn, counters)
	col := pod.Resolve(index.AnyCore)
	for !col.Queue.TryEnqueue(t.run) {
		runtime.Gosched()
	}
	return cmn.Success
}
