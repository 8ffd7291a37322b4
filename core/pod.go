package core

import (
	"math/rand"
	"sync"

	"github.com/pando-hammer/pandohammer/index"
)

// Pod owns the worker cores of one pod plus its scheduler column — the
// implicit extra core at x == NumCores (spec.md §9's supplemented
// feature 2, grounded on original_source/pando-rt's locality.cpp
// getCoreDims()/execute_on.cpp's anyCore resolution).
type Pod struct {
	Index  index.PodIndex
	Cores  []*Core // worker cores, length == NumCores
	Column *Core   // scheduler column

	rng *rand.Rand
	mu  sync.Mutex

	readyWg sync.WaitGroup
}

// New builds an unstarted Pod with numCores worker cores plus one
// scheduler column, each sized to harts harts and bytesPerHart of L1SP.
func New(pod index.PodIndex, numCores, harts int, bytesPerHart uint64) *Pod {
	p := &Pod{
		Cores: make([]*Core, numCores),
		Index: pod,
		rng:   rand.New(rand.NewSource(int64(pod.X)<<8 | int64(pod.Y))),
	}
	for i := 0; i < numCores; i++ {
		c := newCore(index.CoreIndex{X: int8(i), Y: pod.Y}, harts, bytesPerHart, false)
		c.pod = p
		p.Cores[i] = c
	}
	p.Column = newCore(p.ColumnIndex(), harts, bytesPerHart, true)
	p.Column.pod = p
	return p
}

// ColumnIndex is the scheduler column's coordinate: column NumCores, row
// 0 (original_source's `CoreIndex(coreDims.x, 0)`).
func (p *Pod) ColumnIndex() index.CoreIndex {
	return index.CoreIndex{X: int8(len(p.Cores)), Y: 0}
}

// pickWorker is the scheduler column's uniform choice of a worker core
// on this pod (spec.md §4.7).
func (p *Pod) pickWorker() *Core {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Cores[p.rng.Intn(len(p.Cores))]
}

// Start brings up every core on the pod concurrently and blocks until
// all of them (including the scheduler column) have reached Ready —
// spec.md §4.7's "the CP does not proceed until this counter equals the
// core count", generalized by one to also cover the column.
func (p *Pod) Start() {
	total := len(p.Cores) + 1
	p.readyWg.Add(total)
	onReady := func() { p.readyWg.Done() }
	for _, c := range p.Cores {
		c.start(onReady)
	}
	p.Column.start(onReady)
	p.readyWg.Wait()
}

// Stop tears down every core on the pod. Per SPEC_FULL.md §3 (grounded
// on original_source/pando-rt's prep/cores.cpp ComputeNode::stop), the
// scheduler column is stopped first, then workers in reverse index
// order.
func (p *Pod) Stop() {
	p.Column.stop()
	for i := len(p.Cores) - 1; i >= 0; i-- {
		p.Cores[i].stop()
	}
}

// CoreByIndex returns the worker core at the given coordinate, or the
// scheduler column if idx matches ColumnIndex(), or nil.
func (p *Pod) CoreByIndex(idx index.CoreIndex) *Core {
	if idx == p.ColumnIndex() {
		return p.Column
	}
	for _, c := range p.Cores {
		if c.Index == idx {
			return c
		}
	}
	return nil
}

// Resolve maps a Place's core coordinate onto a concrete Core: anyCore
// routes to the scheduler column (spec.md §3: "anyCore placement
// selects the scheduler column of some core on the target pod"); a
// concrete coordinate routes straight to that worker.
func (p *Pod) Resolve(core index.CoreIndex) *Core {
	if core.IsAny() {
		return p.Column
	}
	return p.CoreByIndex(core)
}
