package math32

import (
	"math"
	"testing"
)

func TestNormalizeOrZero(t *testing.T) {
	if got := (Vector3{}).NormalizeOrZero(); got != (Vector3{}) {
		t.Fatalf("zero vector normalized to %v, want zero", got)
	}
	got := Vector3{X: 3, Y: 4}.NormalizeOrZero()
	if !got.ApproxEqual(Vector3{X: 0.6, Y: 0.8}, 1e-6) {
		t.Fatalf("NormalizeOrZero(3,4,0) = %v, want (0.6,0.8,0)", got)
	}
	inf := Vector3{X: Infinity}
	if got := inf.NormalizeOrZero(); got != (Vector3{}) {
		t.Fatalf("infinite vector normalized to %v, want zero", got)
	}
}

func TestMinMaxElement(t *testing.T) {
	a := Vector3{X: 1, Y: -2, Z: 5}
	b := Vector3{X: -1, Y: 3, Z: 4}
	if got := a.Min(b); got != (Vector3{X: -1, Y: -2, Z: 4}) {
		t.Fatalf("Min = %v", got)
	}
	if got := a.Max(b); got != (Vector3{X: 1, Y: 3, Z: 5}) {
		t.Fatalf("Max = %v", got)
	}
	if got := a.MaxElement(); got != 5 {
		t.Fatalf("MaxElement = %v, want 5", got)
	}
	if got := b.Abs(); got != (Vector3{X: 1, Y: 3, Z: 4}) {
		t.Fatalf("Abs = %v", got)
	}
}

func TestPowi(t *testing.T) {
	cases := []struct {
		base float32
		exp  int32
		want float32
	}{
		{2, 0, 1},
		{2, 1, 2},
		{2, 2, 4},
		{2, 3, 8},
		{2, -1, 0.5},
		{2, -2, 0.25},
		{2, -3, 0.125},
	}
	for _, c := range cases {
		if got := Powi(c.base, c.exp); Abs(got-c.want) > 1e-6 {
			t.Errorf("Powi(%v, %d) = %v, want %v", c.base, c.exp, got, c.want)
		}
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(1) {
		t.Fatal("1 should be finite")
	}
	if IsFinite(float32(math.NaN())) || IsFinite(Infinity) {
		t.Fatal("NaN and Inf should not be finite")
	}
	if (Vector3{X: 1, Y: float32(math.NaN())}).IsFinite() {
		t.Fatal("vector with NaN should not be finite")
	}
}
