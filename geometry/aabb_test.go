package geometry

import (
	"testing"

	"github.com/o0olele/barneshut-go/math32"
)

func TestFromPoints(t *testing.T) {
	aabb := FromPoints([]math32.Vector3{
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: 5, Z: 0},
		{X: 0, Y: -4, Z: 2},
	})
	want := AABB{Min: math32.Vector3{X: -1, Y: -4, Z: 0}, Max: math32.Vector3{X: 1, Y: 5, Z: 3}}
	if aabb != want {
		t.Fatalf("FromPoints = %+v, want %+v", aabb, want)
	}
	if got := aabb.MaxExtent(); got != 9 {
		t.Fatalf("MaxExtent = %v, want 9", got)
	}
	if got := aabb.Center(); got != (math32.Vector3{X: 0, Y: 0.5, Z: 1.5}) {
		t.Fatalf("Center = %v", got)
	}
}

func TestIsValid(t *testing.T) {
	empty := EmptyAABB()
	if empty.IsValid() {
		t.Fatal("empty AABB should not be valid")
	}
	point := FromPoints([]math32.Vector3{{X: 1, Y: 1, Z: 1}})
	if !point.IsValid() {
		t.Fatal("single point AABB should be valid")
	}
	inverted := AABB{Min: math32.Vector3{X: 1}, Max: math32.Vector3{X: -1}}
	if inverted.IsValid() {
		t.Fatal("inverted AABB should not be valid")
	}
}

func TestPadContains(t *testing.T) {
	aabb := AABB{Max: math32.Vector3{X: 1, Y: 1, Z: 1}}
	outside := math32.Vector3{X: 1.5, Y: 0.5, Z: 0.5}
	if aabb.Contains(outside) {
		t.Fatal("point should be outside the unpadded box")
	}
	padded := aabb.Pad(0.5)
	if !padded.Contains(outside) {
		t.Fatal("point should be inside the padded box")
	}
}
