package core

import (
	"sync"
	"testing"
	"time"

	"github.com/pando-hammer/pandohammer/index"
)

func TestPodRunsEnqueuedTaskAndShutsDownCleanly(t *testing.T) {
	p := New(index.PodIndex{X: 0, Y: 0}, 2, 2, 256)
	p.Start()

	var ran sync.WaitGroup
	ran.Add(1)
	ok := p.Cores[0].Queue.TryEnqueue(func() { ran.Done() })
	if !ok {
		t.Fatal("TryEnqueue on a freshly started core's queue failed")
	}

	done := make(chan struct{})
	go func() { ran.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueued task never ran")
	}

	stopDone := make(chan struct{})
	go func() { p.Stop(); close(stopDone) }()
	select {
	case <-stopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Pod.Stop deadlocked")
	}

	for _, c := range p.Cores {
		if c.State() != Stopped {
			t.Fatalf("core %v state = %v, want Stopped", c.Index, c.State())
		}
	}
}

func TestColumnRedistributesToAWorker(t *testing.T) {
	p := New(index.PodIndex{X: 0, Y: 0}, 3, 1, 256)
	p.Start()
	defer p.Stop()

	var ran sync.WaitGroup
	ran.Add(1)
	if !p.Column.Queue.TryEnqueue(func() { ran.Done() }) {
		t.Fatal("TryEnqueue on the scheduler column failed")
	}

	done := make(chan struct{})
	go func() { ran.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("column never redistributed its entry to a worker")
	}
}

func TestResolveAnyCoreIsTheColumn(t *testing.T) {
	p := New(index.PodIndex{X: 1, Y: 0}, 4, 1, 128)
	if got := p.Resolve(index.AnyCore); got != p.Column {
		t.Fatalf("Resolve(AnyCore) = %v, want the scheduler column", got.Index)
	}
	if got := p.Resolve(p.Cores[2].Index); got != p.Cores[2] {
		t.Fatalf("Resolve(concrete core) did not return the matching worker")
	}
}
