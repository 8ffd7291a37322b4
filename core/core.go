package core

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/pando-hammer/pandohammer/cmn/nlog"
	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/index"
	"github.com/pando-hammer/pandohammer/queue"
)

// QueueCapacity bounds a core's task queue. spec.md §4.2 leaves the
// queue's capacity unspecified beyond "bounded"; this value is generous
// enough that ordinary workloads never observe queue_full.
const QueueCapacity = 1 << 16

// Core is one worker core (or the pod's scheduler column) within a pod:
// its index, lifecycle state, task queue, and hart contexts (spec.md
// §3's Core type).
type Core struct {
	Index    index.CoreIndex
	Queue    *queue.Queue
	Harts    []*hart.Context
	isColumn bool

	baton   *hart.Baton
	state   stateBox
	active  atomic.Bool
	stopped atomic.Int32 // shutdown-cascade counter, see cooperativeShutdown
	wg      sync.WaitGroup
	peersWg sync.WaitGroup

	pod *Pod // set by New, used for work-stealing peer lookup
}

func newCore(idx index.CoreIndex, numHarts int, l1spBytesPerHart uint64, isColumn bool) *Core {
	pad := hart.NewScratchpad(numHarts, l1spBytesPerHart)
	baton := hart.NewBaton(numHarts)
	harts := make([]*hart.Context, numHarts)
	for i := range harts {
		harts[i] = hart.NewContext(index.ThreadIndex{ID: int8(i)}, baton, i, pad)
	}
	return &Core{
		Index:    idx,
		Queue:    queue.New(QueueCapacity),
		Harts:    harts,
		isColumn: isColumn,
		baton:    baton,
	}
}

// State returns the core's current lifecycle state.
func (c *Core) State() State { return c.state.load() }

// start launches every hart's goroutine. onElected is invoked once, by
// hart 0, after it has flipped the core's state to Ready (spec.md §4.7
// step 3: "exactly one hart per core performs construction..., flipping
// coreState: Stopped→Idle→Ready via CAS"); onElected is where the Pod
// bumps its "cores initialized" counter.
func (c *Core) start(onElected func()) {
	c.active.Store(true)
	for i, h := range c.Harts {
		c.wg.Add(1)
		if i > 0 {
			c.peersWg.Add(1)
		}
		go c.hartLoop(i, h, onElected)
	}
	c.baton.Start()
}

func (c *Core) hartLoop(ordinal int, ctx *hart.Context, onElected func()) {
	defer c.wg.Done()
	if ordinal > 0 {
		defer c.peersWg.Done()
	}
	defer close(ctx.Done)
	ctx.Join()

	if ordinal == 0 {
		c.state.store(Idle)
		if !c.state.cas(Idle, Ready) {
			nlog.Errorf("core %v: elected hart failed Idle->Ready CAS", c.Index)
		}
		if onElected != nil {
			onElected()
		}
	} else {
		ctx.YieldUntil(func() bool { return c.state.load() == Ready })
	}

	if c.isColumn {
		c.columnLoop(ctx)
	} else {
		c.dispatchLoop(ctx)
	}

	if ordinal == 0 {
		c.finalize(ctx)
	}
}

// cooperativeShutdown is the exit step every hart runs once it observes
// the core-active flag cleared: it hands the baton to the next hart in
// the ring (so that hart also gets a chance to notice and exit) unless
// it is the last of this core's harts to do so, in which case nobody is
// left waiting on the baton and it must not hand off. Grounded on
// spec.md §4.7's "per-core finalization (symmetric): harts signal done".
func (c *Core) cooperativeShutdown(ctx *hart.Context) {
	if c.stopped.Inc() < int32(len(c.Harts)) {
		ctx.HandOff()
	}
}

// dispatchLoop is a worker hart's main loop (spec.md §4.7): dequeue, or
// on miss alternate a yield with one work-stealing attempt, until the
// core-active flag is cleared.
func (c *Core) dispatchLoop(ctx *hart.Context) {
	for {
		if !c.active.Load() {
			c.cooperativeShutdown(ctx)
			return
		}
		if t, ok := c.Queue.TryDequeue(); ok {
			t()
			continue
		}
		ctx.Yield()
		c.tryStealOnce()
	}
}

// tryStealOnce implements spec.md §5's three work-stealing invariants:
// steal only from a peer's queue, never more than one task per miss,
// never block waiting for a victim.
func (c *Core) tryStealOnce() {
	if c.pod == nil {
		return
	}
	for _, peer := range c.pod.Cores {
		if peer == c {
			continue
		}
		if peer.Queue.ApproxSize() <= WorkStealThreshold {
			continue
		}
		if t, ok := peer.Queue.TryDequeue(); ok {
			t()
			return
		}
	}
}

// columnLoop is the scheduler column's main loop (spec.md §4.7): it
// never runs a user task itself, only dequeues a distribution entry and
// re-enqueues it on a uniformly chosen worker core of the same pod.
func (c *Core) columnLoop(ctx *hart.Context) {
	for {
		if !c.active.Load() {
			c.cooperativeShutdown(ctx)
			return
		}
		t, ok := c.Queue.TryDequeue()
		if !ok {
			ctx.Yield()
			continue
		}
		peer := c.pod.pickWorker()
		for !peer.Queue.TryEnqueue(t) {
			// Back-pressure: the chosen worker's queue is momentarily
			// full. Yield and retry rather than dropping the task (tasks
			// are never cancellable once enqueued, spec.md §5).
			ctx.Yield()
		}
	}
}

// finalize implements spec.md §4.7's symmetric per-core teardown: the
// elected hart waits for every other hart on this core to report done
// (a real, non-cooperative wait — the baton ring has already been fully
// drained by cooperativeShutdown), moves the core back to Idle, tears
// down the queue, and marks the core Stopped.
func (c *Core) finalize(ctx *hart.Context) {
	c.peersWg.Wait()
	c.state.store(Idle)
	c.Queue.Clear()
	c.state.store(Stopped)
}

// stop clears the core-active flag (observed by dispatchLoop/columnLoop
// on their next iteration) and blocks until every hart has exited.
func (c *Core) stop() {
	c.active.Store(false)
	c.wg.Wait()
}
