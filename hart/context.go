package hart

import "github.com/pando-hammer/pandohammer/index"

// Context is the per-hart identity threaded through a core's dispatch
// loop: which hart this is, how to yield, and where its L1SP lives.
// spec.md §3 also asks for "a handle for join"; Done serves that role
// (core.Core closes it when the hart's goroutine exits).
type Context struct {
	ID    index.ThreadIndex
	baton *Baton
	id    int
	Pad   *Scratchpad
	Done  chan struct{}
}

// NewContext builds a hart context bound to its core's baton and
// scratchpad.
func NewContext(thread index.ThreadIndex, b *Baton, ordinal int, pad *Scratchpad) *Context {
	return &Context{ID: thread, baton: b, id: ordinal, Pad: pad, Done: make(chan struct{})}
}

// Join blocks until this hart's first turn.
func (c *Context) Join() { c.baton.Join(c.id) }

// Yield relinquishes this hart to its core's next hart.
func (c *Context) Yield() { c.baton.Yield(c.id) }

// YieldUntil yields repeatedly until cond returns true — the primitive
// every blocking operation in spec.md §5 is built from.
func (c *Context) YieldUntil(cond func() bool) { c.baton.YieldUntil(c.id, cond) }

// HandOff passes the baton to this core's next hart without waiting to
// regain it. Used only by the per-core shutdown cascade (core.Core),
// where a hart that has decided to exit the dispatch loop for good must
// not block on a turn it will never claim.
func (c *Context) HandOff() { c.baton.HandOff(c.id) }

// L1SPOffset translates a byte index local to this hart's own scratchpad
// region into the region's position within the core's L1SP tier.
func (c *Context) L1SPOffset(localOffset uint64) uint64 {
	return c.Pad.Offset(c.id, localOffset)
}
