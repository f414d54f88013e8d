package octree

import "github.com/o0olele/barneshut-go/math32"

type nodeKind uint8

const (
	kindEmpty nodeKind = iota
	kindLeaf
	kindInternal
)

func (k nodeKind) String() string {
	switch k {
	case kindLeaf:
		return "leaf"
	case kindInternal:
		return "internal"
	}
	return "empty"
}

// entry is a body folded into a merged leaf.
type entry[T comparable] struct {
	id       T
	position math32.Vector3
	mass     float32
}

// limits is the subdivision floor shared by every node of a tree.
type limits struct {
	maxDepth uint8
	minSize  float32
}

// splitResolution is the smallest half-size, relative to the largest midpoint
// coordinate, that a cell may be split into. Below it float32 midpoints no
// longer separate positions.
const splitResolution = 64 * math32.Epsilon

// moments are the float64 running sums behind a node's mass and center of
// mass. Folding bodies in one at a time does not drift.
type moments struct {
	mass     float64
	weighted [3]float64
	plain    [3]float64
}

// Node is one cubic cell of the tree. It is empty, a leaf holding one body,
// or an internal node owning eight children, one per octant.
//
// A leaf that reaches the subdivision floor keeps every further body in
// merged instead of splitting; merged is nil for ordinary leaves.
type Node[T comparable] struct {
	mass         float32
	centerOfMass math32.Vector3
	moments      moments
	midpoint     math32.Vector3
	size         float32
	count        uint32
	depth        uint8
	kind         nodeKind
	id           T
	merged       []entry[T]
	children     *[8]Node[T]
}

func newNode[T comparable](midpoint math32.Vector3, size float32, depth uint8) Node[T] {
	return Node[T]{
		midpoint: midpoint,
		size:     size,
		depth:    depth,
	}
}

// Mass returns the total mass of the bodies under the node.
func (n *Node[T]) Mass() float32 {
	return n.mass
}

// CenterOfMass returns the mass-weighted average position of the bodies under
// the node. It is the zero vector for an empty node.
func (n *Node[T]) CenterOfMass() math32.Vector3 {
	return n.centerOfMass
}

// Midpoint returns the center of the node's cube.
func (n *Node[T]) Midpoint() math32.Vector3 {
	return n.midpoint
}

// Size returns the edge length of the node's cube.
func (n *Node[T]) Size() float32 {
	return n.size
}

// Depth returns the node's distance from the root.
func (n *Node[T]) Depth() uint8 {
	return n.depth
}

// Count returns the number of bodies inserted under the node.
func (n *Node[T]) Count() int {
	return int(n.count)
}

func (n *Node[T]) IsEmpty() bool {
	return n.kind == kindEmpty
}

func (n *Node[T]) IsLeaf() bool {
	return n.kind == kindLeaf
}

func (n *Node[T]) IsInternal() bool {
	return n.kind == kindInternal
}

// Child returns the child covering octant i, or nil when the node has no
// children.
func (n *Node[T]) Child(i int) *Node[T] {
	if n.children == nil || i < 0 || i >= len(n.children) {
		return nil
	}
	return &n.children[i]
}

// insert places a body under the node and folds it into the node's aggregate.
func (n *Node[T]) insert(id T, position math32.Vector3, mass float32, l limits) {
	switch n.kind {
	case kindEmpty:
		n.kind = kindLeaf
		n.id = id

	case kindLeaf:
		if n.atFloor(l) {
			if n.merged == nil {
				n.merged = append(n.merged, entry[T]{id: n.id, position: n.centerOfMass, mass: n.mass})
			}
			n.merged = append(n.merged, entry[T]{id: id, position: position, mass: mass})
			break
		}

		n.split()
		// a leaf's aggregate is exactly its one body
		n.children[branchIndex(n.centerOfMass, n.midpoint)].insert(n.id, n.centerOfMass, n.mass, l)
		n.children[branchIndex(position, n.midpoint)].insert(id, position, mass, l)

		var zero T
		n.id = zero
		n.kind = kindInternal

	case kindInternal:
		n.children[branchIndex(position, n.midpoint)].insert(id, position, mass, l)
	}

	n.accumulate(position, mass)
}

// atFloor reports whether the node may no longer be subdivided.
func (n *Node[T]) atFloor(l limits) bool {
	half := n.size * 0.5
	return n.depth >= l.maxDepth || half < l.minSize || half <= n.midpoint.Abs().MaxElement()*splitResolution
}

// split allocates the eight half-size children.
//
// Child i covers the octant whose X, Y and Z signs are given by bits 0, 1
// and 2 of i; a set bit is the upper half.
func (n *Node[T]) split() {
	sub := n.size / 2
	minMidpoint := n.midpoint.Sub(math32.Splat(sub / 2))

	children := new([8]Node[T])
	for i := range children {
		offset := math32.Vector3{
			X: float32(i & 1),
			Y: float32(i >> 1 & 1),
			Z: float32(i >> 2 & 1),
		}
		children[i] = newNode[T](minMidpoint.Add(offset.Mul(sub)), sub, n.depth+1)
	}
	n.children = children
}

// accumulate folds one body into the running mass and center of mass.
func (n *Node[T]) accumulate(position math32.Vector3, mass float32) {
	m := &n.moments
	m.mass += float64(mass)
	for i, c := range position.Array() {
		m.weighted[i] += float64(mass) * float64(c)
		m.plain[i] += float64(c)
	}
	n.count++

	n.mass = float32(m.mass)
	if m.mass != 0 {
		n.centerOfMass = meanOf(m.weighted, m.mass)
	} else {
		// weights cancel out; fall back to the unweighted mean to stay finite
		n.centerOfMass = meanOf(m.plain, float64(n.count))
	}
}

func meanOf(sum [3]float64, total float64) math32.Vector3 {
	return math32.Vector3{
		X: float32(sum[0] / total),
		Y: float32(sum[1] / total),
		Z: float32(sum[2] / total),
	}
}

// walk visits every contributor the Barnes-Hut criterion accepts for a body
// identified by id at position.
func (n *Node[T]) walk(id T, position math32.Vector3, theta float32, visit Visitor) {
	switch n.kind {
	case kindEmpty:
		return

	case kindLeaf:
		if n.merged == nil {
			if n.id != id {
				visit(n.centerOfMass, n.mass)
			}
			return
		}
		for _, e := range n.merged {
			if e.id != id {
				visit(e.position, e.mass)
			}
		}

	case kindInternal:
		d := n.centerOfMass.Distance(position)
		// the queried body may be inside an accepted subtree; it is not subtracted out
		if n.size/d < theta {
			visit(n.centerOfMass, n.mass)
			return
		}
		for i := range n.children {
			n.children[i].walk(id, position, theta, visit)
		}
	}
}

// branchIndex selects the octant of midpoint that contains position.
// Coordinates equal to the midpoint go to the lower octant.
func branchIndex(position, midpoint math32.Vector3) int {
	i := 0
	if position.X > midpoint.X {
		i |= 1
	}
	if position.Y > midpoint.Y {
		i |= 2
	}
	if position.Z > midpoint.Z {
		i |= 4
	}
	return i
}
