// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// Sign returns -1.0, 0.0, or 1.0 depending on the sign of value. Note
// that Sign(0.0) == 0.0, unlike math.Copysign which treats 0.0 as
// positive.
func Sign(value float64) float64 {
	if value > 0 {
		return 1.0
	} else if value < 0 {
		return -1.0
	}
	return 0.0
}
