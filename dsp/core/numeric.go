package core

import (
	"math"
	"slices"
)

const defaultEpsilon = 1e-12

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}
	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}
	return diff/largest <= eps
}

// RelativeDiff returns |a-b| / max(|a|, |b|), or 0 when both are zero.
func RelativeDiff(a, b float64) float64 {
	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return 0
	}
	return math.Abs(a-b) / largest
}

// Median returns the median of values without modifying them.
// Returns NaN for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return 0.5 * (sorted[n/2-1] + sorted[n/2])
}

// IsFinite reports whether x is neither NaN nor Inf.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
