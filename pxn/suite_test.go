package pxn

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/pando-hammer/pandohammer/hart"
	"github.com/pando-hammer/pandohammer/index"
)

func TestPxn(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pxn Suite")
}

// soloHart returns a hart.Context backed by its own single-hart baton,
// already joined so Yield/YieldUntil calls round-trip synchronously —
// enough to drive the local and remote dispatch paths in atomics/gptr
// from an ordinary test goroutine without booting a full core.
func soloHart() *hart.Context {
	baton := hart.NewBaton(1)
	pad := hart.NewScratchpad(1, 4096)
	ctx := hart.NewContext(index.ThreadIndex{ID: 0}, baton, 0, pad)
	baton.Start()
	ctx.Join()
	return ctx
}
