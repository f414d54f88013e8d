package math32

import "math"

// Epsilon is the difference between 1 and the next representable float32.
const Epsilon float32 = 1.1920929e-07

// Min returns the minimum of two values.
func Min[T float32 | int32](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two values.
func Max[T float32 | int32](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Abs returns the absolute value of a float32.
func Abs(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

// Sqrt returns the square root of a float32.
func Sqrt(a float32) float32 {
	return float32(math.Sqrt(float64(a)))
}

// Powi raises a to an integer power. Negative exponents are allowed.
func Powi(a float32, exp int32) float32 {
	switch exp {
	case 0:
		return 1
	case 1:
		return a
	case -1:
		return 1 / a
	case 2:
		return a * a
	case -2:
		return 1 / (a * a)
	}
	return float32(math.Pow(float64(a), float64(exp)))
}

// IsFinite reports whether a is neither NaN nor an infinity.
func IsFinite(a float32) bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
