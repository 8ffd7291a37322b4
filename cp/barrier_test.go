package cp

import (
	"sync"
	"testing"
)

func TestAllReduceSumsAcrossParticipants(t *testing.T) {
	const n = 5
	a := NewAllReduce(n)

	var wg sync.WaitGroup
	results := make([][2]int64, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			sum1, sum2 := a.Sum(int64(i), int64(i*2))
			results[i] = [2]int64{sum1, sum2}
		}(i)
	}
	wg.Wait()

	wantSum1, wantSum2 := int64(0), int64(0)
	for i := 0; i < n; i++ {
		wantSum1 += int64(i)
		wantSum2 += int64(i * 2)
	}
	for i, r := range results {
		if r[0] != wantSum1 || r[1] != wantSum2 {
			t.Fatalf("participant %d saw (%d, %d), want (%d, %d)", i, r[0], r[1], wantSum1, wantSum2)
		}
	}
}

func TestAllReduceMultipleRounds(t *testing.T) {
	const n = 3
	a := NewAllReduce(n)

	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				a.Sum(1, 0)
			}()
		}
		wg.Wait()
	}
}

func TestBarrierWaitRendezvouses(t *testing.T) {
	const n = 4
	a := NewAllReduce(n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			a.Wait()
		}()
	}
	wg.Wait()
}
