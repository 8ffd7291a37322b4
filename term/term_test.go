package term

import "testing"

// reducerOver wires a Reducer straight to a single Counters, simulating a
// one-PXN "all-reduce" — useful for exercising WaitAll's loop shape
// without standing up cp.AllReduce.
func reducerOver(c *Counters) Reducer {
	return func(partialNew, partialPending int64) (int64, int64) {
		return partialNew, partialPending
	}
}

func TestWaitAllConvergesWhenQuiescent(t *testing.T) {
	var c Counters
	c.IncCreated()
	c.IncCreated()
	c.IncFinished()
	c.IncFinished()

	d := NewDetector(&c)
	done := make(chan struct{})
	go func() {
		d.WaitAll(reducerOver(&c))
		close(done)
	}()

	select {
	case <-done:
	default:
	}
	<-done // must return promptly since the pod is already quiescent
}

func TestWaitAllBlocksUntilFinished(t *testing.T) {
	var c Counters
	c.IncCreated()

	d := NewDetector(&c)
	returned := make(chan struct{})
	go func() {
		d.WaitAll(reducerOver(&c))
		close(returned)
	}()

	select {
	case <-returned:
		t.Fatalf("WaitAll returned while a task was still pending")
	default:
	}

	c.IncFinished()
	<-returned
}

func TestCountersRemaining(t *testing.T) {
	var c Counters
	c.IncCreated()
	c.IncCreated()
	c.IncCreated()
	c.IncFinished()
	if got := c.Remaining(); got != 2 {
		t.Fatalf("Remaining() = %d, want 2", got)
	}
}
