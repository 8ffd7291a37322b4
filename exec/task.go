// Package exec implements execute_on/task dispatch (C9): building a Task
// from a closure and a target place, then routing it onto a local core's
// queue or across the mesh as a request active message. Grounded on
// spec.md §4.9 and original_source/pando-rt's execution/execute_on.cpp.
package exec

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/pando-hammer/pandohammer/term"
)

// Task wraps a closure together with the termination counters it must
// report to on completion. Eagerly constructed by ExecuteOn/Dispatch and
// consumed exactly once (spec.md §4.9: "a task is never re-enqueued or
// retried after it starts running").
type Task struct {
	fn       func()
	counters *term.Counters
}

func newTask(fn func(), counters *term.Counters) *Task {
	return &Task{fn: fn, counters: counters}
}

func (t *Task) run() {
	defer t.counters.IncFinished()
	t.fn()
}

var (
	registry sync.Map
	nextID   atomic.Uint64
)

// Register stores fn under a fresh opaque ID for a pending remote
// dispatch and returns that ID to place on the wire. Grounded on
// spec.md §9's note to represent cross-node task handles "as an index
// into an arena", the same shape transport's handleTable uses for
// completion handles.
func Register(fn func()) uint64 {
	id := nextID.Inc()
	registry.Store(id, fn)
	return id
}

// take removes and returns the closure registered under id, or
// (nil, false) if it was never registered or already consumed.
func take(id uint64) (func(), bool) {
	v, ok := registry.LoadAndDelete(id)
	if !ok {
		return nil, false
	}
	return v.(func()), true
}
