package octree

import "github.com/o0olele/barneshut-go/math32"

// Visitor receives each contributor accepted by a traversal: the exact
// position and mass of a single body, or the aggregate of a distant cell.
type Visitor func(position math32.Vector3, mass float32)

// Law computes the force exerted on a body at position by a contributor of
// the given mass located at source.
type Law func(position, source math32.Vector3, mass float32) math32.Vector3

// PointMass is one contributor returned by Tree.PointMasses.
type PointMass struct {
	Position math32.Vector3 `json:"position"`
	Mass     float32        `json:"mass"`
}

// PairForce is the pairwise power law used by Tree.Force:
//
//	F = k · m · normalize(source − position) · (|source − position| + ε)^e
//
// Contributors with non-positive mass exert no force. The direction is the
// zero vector when the two positions coincide.
func PairForce(position, source math32.Vector3, mass, forceConstant float32, distanceExp int32) math32.Vector3 {
	if mass <= 0 {
		return math32.Vector3{}
	}
	d := source.Sub(position)
	direction := d.NormalizeOrZero()
	if direction == (math32.Vector3{}) {
		return direction
	}
	return direction.Mul(forceConstant * mass * math32.Powi(d.Length()+math32.Epsilon, distanceExp))
}

// PowerLaw binds a force constant and a distance exponent into a Law.
func PowerLaw(forceConstant float32, distanceExp int32) Law {
	return func(position, source math32.Vector3, mass float32) math32.Vector3 {
		return PairForce(position, source, mass, forceConstant, distanceExp)
	}
}
