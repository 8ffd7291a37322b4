package pxn

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/atomics"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/cp"
	"github.com/pando-hammer/pandohammer/exec"
	"github.com/pando-hammer/pandohammer/gptr"
	"github.com/pando-hammer/pandohammer/index"
	"github.com/pando-hammer/pandohammer/term"
	"github.com/pando-hammer/pandohammer/transport"
)

func smallConfig() cmn.Config {
	c := cmn.Default()
	c.NumCores = 2
	c.NumHarts = 2
	return c
}

var _ = Describe("World", func() {
	var (
		mesh    *transport.Mesh
		barrier *cp.AllReduce
	)

	BeforeEach(func() {
		mesh = transport.NewMesh()
	})

	// S1: local ping — a store followed by a load on the same node
	// observes the written value.
	It("round-trips a local store/load", func() {
		barrier = cp.NewAllReduce(1)
		node := index.NodeIndex{ID: 0}
		w := New(node, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })
		h := soloHart()

		ptr, allocStatus := AllocateMemory[uint64](w, addr.Main, 1)
		Expect(allocStatus).To(Equal(cmn.Success))
		Expect(gptr.Store(w, h, ptr, uint64(42))).To(Equal(cmn.Success))

		got, status := gptr.Load(w, h, ptr)
		Expect(status).To(Equal(cmn.Success))
		Expect(got).To(BeEquivalentTo(42))
	})

	// S2: a remote RPC — two PXNs on one mesh, a load issued from node 0
	// against an address homed on node 1 resolves via the transport.
	It("round-trips a remote load across two PXNs", func() {
		barrier = cp.NewAllReduce(2)
		n0 := index.NodeIndex{ID: 0}
		n1 := index.NodeIndex{ID: 1}
		w0 := New(n0, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })
		w1 := New(n1, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })

		ptr, allocStatus := AllocateMemory[uint64](w1, addr.Main, 1)
		Expect(allocStatus).To(Equal(cmn.Success))
		remoteAddr := ptr.Addr
		Expect(w1.WriteLocal(remoteAddr, []byte{7, 0, 0, 0, 0, 0, 0, 0})).To(Equal(cmn.Success))

		h := soloHart()
		got, status := atomics.Load[uint64](w0, h, remoteAddr, atomics.Acquire)
		Expect(status).To(Equal(cmn.Success))
		Expect(got).To(BeEquivalentTo(7))
	})

	// S6: remote atomic CAS contention — two initiators race a CAS
	// against one target's counter; exactly one swap should succeed.
	It("lets exactly one of two racing remote CAS attempts win", func() {
		barrier = cp.NewAllReduce(2)
		n0 := index.NodeIndex{ID: 0}
		n1 := index.NodeIndex{ID: 1}
		w0 := New(n0, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })
		w1 := New(n1, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })

		ptr, allocStatus := AllocateMemory[uint32](w1, addr.Main, 1)
		Expect(allocStatus).To(Equal(cmn.Success))
		target := ptr.Addr
		Expect(w1.WriteLocal(target, []byte{0, 0, 0, 0})).To(Equal(cmn.Success))

		var wins int32
		var mu sync.Mutex
		var wg sync.WaitGroup
		wg.Add(2)
		for i := 0; i < 2; i++ {
			go func() {
				defer wg.Done()
				h := soloHart()
				_, swapped, status := atomics.CAS[uint32](w0, h, target, 0, 99, atomics.AcqRel)
				Expect(status).To(Equal(cmn.Success))
				if swapped {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		Expect(wins).To(BeEquivalentTo(1))
	})

	// S5 (partial): a remote execute_on is counted on the receiving PXN,
	// and once that task has run, WaitAll on both PXNs reports
	// quiescence.
	It("reports quiescence once a remotely dispatched task has finished", func() {
		barrier = cp.NewAllReduce(2)
		n0 := index.NodeIndex{ID: 0}
		n1 := index.NodeIndex{ID: 1}
		w0 := New(n0, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })
		w1 := New(n1, index.PodIndex{}, smallConfig(), mesh, barrier, func() int { return 0 })

		h := soloHart()
		ran := make(chan struct{})
		status := exec.ExecuteOn(w0, h, index.Place{Node: n1, Core: index.AnyCore}, func() {
			close(ran)
		})
		Expect(status).To(Equal(cmn.Success))

		col := w1.Pod().Resolve(index.AnyCore)
		Eventually(func() bool {
			t, ok := col.Queue.TryDequeue()
			if ok {
				t()
				return true
			}
			return false
		}).Should(BeTrue())
		<-ran

		wg := &sync.WaitGroup{}
		wg.Add(2)
		go func() { defer wg.Done(); term.NewDetector(w0.Counters()).WaitAll(barrier.Sum) }()
		go func() { defer wg.Done(); term.NewDetector(w1.Counters()).WaitAll(barrier.Sum) }()
		wg.Wait() // must return: task created and finished balance out globally
	})
})
