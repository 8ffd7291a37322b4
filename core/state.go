// Package core implements per-pod core lifecycle (C7): worker cores with
// a task queue and hart contexts, the scheduler column harts route
// anyCore placements to, work-stealing among peer cores, and the
// Stopped⇒Idle⇒Ready⇒Idle⇒Stopped state machine spec.md §3 describes.
// Grounded on spec.md §4.7 and the teacher's xact/xs package for the
// "elected hart does construction, others spin on state" bring-up shape
// (xact/xs/tcb.go's mirror-target bring-up gate).
package core

import "go.uber.org/atomic"

// State is a core's lifecycle state (spec.md §3).
type State int32

const (
	Stopped State = iota
	Idle
	Ready
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Idle:
		return "Idle"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// WorkStealThreshold is the advisory minimum approximate queue size a
// peer must exceed before a work-stealing hart will steal from it
// (spec.md §4.7, §5: "a tunable with a documented default").
const WorkStealThreshold = 4096

type stateBox struct {
	v atomic.Int32
}

func (b *stateBox) load() State { return State(b.v.Load()) }

func (b *stateBox) cas(from, to State) bool {
	return b.v.CAS(int32(from), int32(to))
}

func (b *stateBox) store(s State) { b.v.Store(int32(s)) }
