package geometry

import "github.com/o0olele/barneshut-go/math32"

// AABB is axis-aligned bounding box
type AABB struct {
	Min math32.Vector3 `json:"min"`
	Max math32.Vector3 `json:"max"`
}

// EmptyAABB returns an inverted box that any call to Extend will replace.
func EmptyAABB() AABB {
	return AABB{
		Min: math32.Splat(math32.Infinity),
		Max: math32.Splat(-math32.Infinity),
	}
}

// FromPoints returns the smallest AABB enclosing every point. With no points
// the result is EmptyAABB().
func FromPoints(points []math32.Vector3) AABB {
	aabb := EmptyAABB()
	for _, p := range points {
		aabb.Extend(p)
	}
	return aabb
}

// Extend grows the AABB so that it contains point.
func (aabb *AABB) Extend(point math32.Vector3) {
	aabb.Min = aabb.Min.Min(point)
	aabb.Max = aabb.Max.Max(point)
}

// Contains checks if the point is inside the AABB
func (aabb *AABB) Contains(point math32.Vector3) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y &&
		point.Z >= aabb.Min.Z && point.Z <= aabb.Max.Z
}

// Center returns the center of the AABB
func (aabb *AABB) Center() math32.Vector3 {
	return aabb.Min.Add(aabb.Max).Mul(0.5)
}

// Size returns the size of the AABB
func (aabb *AABB) Size() math32.Vector3 {
	return aabb.Max.Sub(aabb.Min)
}

// MaxExtent returns the largest edge length, the edge of the smallest cube
// centered on the box that still covers it.
func (aabb *AABB) MaxExtent() float32 {
	return aabb.Size().MaxElement()
}

// IsValid reports whether the box is finite and Min <= Max on every axis.
// A box collapsed to a single point is valid.
func (aabb *AABB) IsValid() bool {
	return aabb.Min.IsFinite() && aabb.Max.IsFinite() &&
		aabb.Min.X <= aabb.Max.X && aabb.Min.Y <= aabb.Max.Y && aabb.Min.Z <= aabb.Max.Z
}

// Pad returns a copy of the box grown by margin on every side.
func (aabb AABB) Pad(margin float32) AABB {
	m := math32.Splat(margin)
	return AABB{Min: aabb.Min.Sub(m), Max: aabb.Max.Add(m)}
}

// Intersects checks if the AABB intersects with another AABB
func (aabb *AABB) Intersects(other AABB) bool {
	return aabb.Min.X <= other.Max.X && aabb.Max.X >= other.Min.X &&
		aabb.Min.Y <= other.Max.Y && aabb.Max.Y >= other.Min.Y &&
		aabb.Min.Z <= other.Max.Z && aabb.Max.Z >= other.Min.Z
}
