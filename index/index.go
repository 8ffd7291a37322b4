// Package index defines the small value types used to name a location in
// the PandoHammer mesh: nodes, pods, cores, harts, and the composite
// "place" used for routing. Grounded on original_source/pando-rt's
// include/pando-rt/index.hpp, which keeps these as plain value types with
// explicit "any" sentinels rather than folding them into pointer-sized
// addresses.
package index

// Any is the sentinel meaning "unspecified, let the runtime pick" for any
// of the index fields below.
const Any = -1

// NodeIndex identifies a PXN in the mesh.
type NodeIndex struct {
	ID int64
}

// IsAny reports whether this index is the "any node" sentinel.
func (n NodeIndex) IsAny() bool { return n.ID == Any }

// PodIndex identifies a pod within a PXN by its (x, y) coordinates. The
// original source splits pod addressing into independent x/y fields
// (address_map.hpp's podX{25,28}/podY{28,31}); this type mirrors that
// split exactly rather than collapsing to a single linear index.
type PodIndex struct {
	X, Y int8
}

// IsAny reports whether this index is the "any pod" sentinel.
func (p PodIndex) IsAny() bool { return p.X == Any && p.Y == Any }

// AnyPod is the "any pod" sentinel value.
var AnyPod = PodIndex{X: Any, Y: Any}

// CoreIndex identifies a core within a pod by its (x, y) coordinates.
type CoreIndex struct {
	X, Y int8
}

// IsAny reports whether this index is the "any core" sentinel.
func (c CoreIndex) IsAny() bool { return c.X == Any && c.Y == Any }

// AnyCore is the "any core" sentinel value.
var AnyCore = CoreIndex{X: Any, Y: Any}

// ThreadIndex identifies a hart within a core.
type ThreadIndex struct {
	ID int8
}

// Place is a routing tuple (node, pod, core); any field may be the "any"
// sentinel. anyCore placement selects the scheduler column of some core
// on the target pod (see core.Pod.Resolve).
type Place struct {
	Node NodeIndex
	Pod  PodIndex
	Core CoreIndex
}
