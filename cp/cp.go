package cp

import (
	"github.com/google/uuid"

	"github.com/pando-hammer/pandohammer/cmn/nlog"
	"github.com/pando-hammer/pandohammer/core"
	"github.com/pando-hammer/pandohammer/index"
)

// Config wires a CP to the already-constructed pieces it sequences.
// Memory tiers and the transport endpoint are built by pxn.World before
// New is called, since they are also needed by the Responder methods the
// world object answers inbound active messages with (spec.md §4.5);
// CP's own job starts one layer up, at "bring the pod up".
type Config struct {
	Node  index.NodeIndex
	Pod   *core.Pod
	Entry func() int
}

// CP sequences one PXN's bring-up, barrier rendezvous and shutdown
// (C8). Grounded on spec.md §4.8 and original_source/pando-rt's
// prep/cores.cpp ComputeNode::start/stop ordering.
type CP struct {
	cfg     Config
	barrier *AllReduce
	runID   string
}

// New binds a CP to its pod and a barrier shared by every PXN
// participating in this run (constructed once by the process that wires
// the whole mesh together and handed to each PXN's CP).
func New(cfg Config, barrier *AllReduce) *CP {
	return &CP{cfg: cfg, barrier: barrier, runID: uuid.NewString()[:8]}
}

// PowerOn brings this PXN's pod up and rendezvouses with every other PXN
// at the bring-up barrier before returning, so no PXN starts running user
// code while another is still initializing its memory tiers or
// registering with the mesh (spec.md §4.8 steps 1-4).
func (c *CP) PowerOn() {
	nlog.Infof("cp[%s] node %d: powering on", c.runID, c.cfg.Node.ID)
	c.cfg.Pod.Start()
	c.barrier.Wait()
}

// Run invokes the user entry point inline on the CP's own goroutine
// (SPEC_FULL.md §3 item 3: the original runs main() synchronously on the
// compute node's own thread, not detached), then drives termination
// detection to quiescence via detect, and finally rendezvouses at the
// exit barrier before returning the entry point's result so no PXN tears
// its pod down while another might still be the target of an in-flight
// active message.
func (c *CP) Run(detect func()) int {
	code := c.cfg.Entry()
	detect()
	c.barrier.Wait()
	return code
}

// PowerOff tears the pod down (spec.md §4.8 step 7: cores stop in
// reverse order, scheduler column first).
func (c *CP) PowerOff() {
	c.cfg.Pod.Stop()
	nlog.Infof("cp[%s] node %d: powered off", c.runID, c.cfg.Node.ID)
}
