// Package locality defines the narrow surface the atomics façade (C10)
// and the global pointer (C13) need from "the local PXN" to decide
// local-vs-remote dispatch and to perform the local fast path, without
// importing the pxn world object directly (which would create an import
// cycle: pxn wires together core/cp/term/transport, all of which sit
// below atomics/gptr in the dependency graph). Grounded on the same
// small-interface-at-the-bottom shape the teacher uses for cmn/cos's
// StatsTracker and Runner interfaces.
package locality

import (
	"github.com/pando-hammer/pandohammer/addr"
	"github.com/pando-hammer/pandohammer/cmn"
	"github.com/pando-hammer/pandohammer/index"
	"github.com/pando-hammer/pandohammer/transport"
)

// Local is implemented by the per-PXN world object (pxn.World). It
// answers "am I this address's home node" and performs the local memory
// operations that back both the local fast path of atomics/gptr and the
// transport responder's handling of inbound active messages.
type Local interface {
	// NodeIndex is this PXN's own node index.
	NodeIndex() index.NodeIndex

	// Mesh is this PXN's endpoint on the cross-PXN transport.
	Mesh() *transport.Endpoint

	// ReadLocal copies n bytes starting at a, which must be local.
	ReadLocal(a addr.GlobalAddress, n int) ([]byte, cmn.Status)

	// WriteLocal copies data into a, which must be local.
	WriteLocal(a addr.GlobalAddress, data []byte) cmn.Status

	// AtomicRMWLocal applies fn to the current bytes at a (which must be
	// local and n bytes wide) under the tier's lock, storing fn's return
	// value back and returning the bytes observed *before* the update —
	// i.e. fetch-style semantics, the shape every operation in spec.md
	// §4.10 needs (load, store-as-RMW-that-discards, CAS, fetch_add/sub).
	AtomicRMWLocal(a addr.GlobalAddress, n int, fn func(cur []byte) []byte) (old []byte, status cmn.Status)
}

// IsLocal reports whether a's node is loc's own node index. An address
// that fails to decode any node (addr.ErrInvalidAddress) is never local.
func IsLocal(loc Local, a addr.GlobalAddress) bool {
	node, err := addr.NodeOf(a)
	if err != nil {
		return false
	}
	return node.ID == loc.NodeIndex().ID
}
