package octree

import (
	"github.com/o0olele/barneshut-go/geometry"
	"github.com/o0olele/barneshut-go/math32"
)

const (
	// DefaultMaxDepth bounds subdivision so that coincident bodies terminate.
	// Away from the origin the float32 resolution floor stops splitting first.
	DefaultMaxDepth uint8 = 32
	// DefaultMinSize disables the size floor; only the depth floor applies.
	DefaultMinSize float32 = 0
)

// Tree is a Barnes-Hut octree over bodies identified by T.
//
// A tree is built once by a single goroutine calling Insert and is read-only
// afterwards: Force, ForceWith, PointMasses and Walk never mutate it and may
// be called concurrently. There is no removal or update; rebuild instead.
type Tree[T comparable] struct {
	root   Node[T]
	count  int
	limits limits
}

// New creates a tree whose root cube is centered on the box and whose edge is
// the box's largest dimension. The box must be finite with minBound <= maxBound
// on every axis; bodies outside it still insert but land in whichever octant
// the midpoint comparison selects.
func New[T comparable](minBound, maxBound math32.Vector3) *Tree[T] {
	return NewWithLimits[T](minBound, maxBound, DefaultMaxDepth, DefaultMinSize)
}

// NewWithLimits is New with an explicit subdivision floor. A leaf at maxDepth,
// or whose children would be smaller than minSize, keeps further bodies as a
// merged leaf instead of splitting.
func NewWithLimits[T comparable](minBound, maxBound math32.Vector3, maxDepth uint8, minSize float32) *Tree[T] {
	return &Tree[T]{
		root: newNode[T](
			maxBound.Add(minBound).Div(2),
			maxBound.Sub(minBound).MaxElement(),
			0,
		),
		limits: limits{maxDepth: maxDepth, minSize: minSize},
	}
}

// NewFromAABB creates a tree covering bounds.
func NewFromAABB[T comparable](bounds geometry.AABB) *Tree[T] {
	return New[T](bounds.Min, bounds.Max)
}

// Insert adds a body. Bodies with non-positive mass take part in the
// structure but exert no force.
func (t *Tree[T]) Insert(id T, position math32.Vector3, mass float32) {
	t.root.insert(id, position, mass, t.limits)
	t.count++
}

// Len returns the number of inserted bodies.
func (t *Tree[T]) Len() int {
	return t.count
}

// Root returns the root node.
func (t *Tree[T]) Root() *Node[T] {
	return &t.root
}

// Mass returns the total inserted mass.
func (t *Tree[T]) Mass() float32 {
	return t.root.mass
}

// CenterOfMass returns the mass-weighted average of all inserted positions.
func (t *Tree[T]) CenterOfMass() math32.Vector3 {
	return t.root.centerOfMass
}

// Bounds returns the root cube.
func (t *Tree[T]) Bounds() geometry.AABB {
	half := math32.Splat(t.root.size / 2)
	return geometry.AABB{
		Min: t.root.midpoint.Sub(half),
		Max: t.root.midpoint.Add(half),
	}
}

// Walk runs the Barnes-Hut traversal for a body identified by id at position
// and calls visit for every accepted contributor. A cell is accepted whole
// when its size divided by the distance to its center of mass is below theta.
func (t *Tree[T]) Walk(id T, position math32.Vector3, theta float32, visit Visitor) {
	t.root.walk(id, position, theta, visit)
}

// ForceWith returns the net force on a body identified by id at position,
// evaluating law for every accepted contributor.
func (t *Tree[T]) ForceWith(id T, position math32.Vector3, theta float32, law Law) math32.Vector3 {
	var force math32.Vector3
	t.root.walk(id, position, theta, func(source math32.Vector3, mass float32) {
		force = force.Add(law(position, source, mass))
	})
	return force
}

// Force returns the approximate net force on a body identified by id at
// position under PairForce with the given constant and distance exponent.
func (t *Tree[T]) Force(id T, position math32.Vector3, forceConstant float32, distanceExp int32, theta float32) math32.Vector3 {
	var force math32.Vector3
	t.root.walk(id, position, theta, func(source math32.Vector3, mass float32) {
		force = force.Add(PairForce(position, source, mass, forceConstant, distanceExp))
	})
	return force
}

// PointMasses returns the contributors the traversal accepts for a body
// identified by id at position, for callers applying their own law.
func (t *Tree[T]) PointMasses(id T, position math32.Vector3, theta float32) []PointMass {
	masses := make([]PointMass, 0, t.count)
	t.root.walk(id, position, theta, func(source math32.Vector3, mass float32) {
		masses = append(masses, PointMass{Position: source, Mass: mass})
	})
	return masses
}
