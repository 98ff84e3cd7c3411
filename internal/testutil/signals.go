package testutil

import (
	"math/rand"
)

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// ClickTrain generates unit impulses every period samples starting at offset.
func ClickTrain(length, period, offset int) []float64 {
	out := make([]float64, length)
	if period <= 0 {
		return out
	}
	for i := offset; i < length; i += period {
		if i >= 0 {
			out[i] = 1
		}
	}
	return out
}

// ClickTrainSegments concatenates click trains with different periods. Each
// segment restarts its phase at the segment boundary.
func ClickTrainSegments(segmentLength int, periods ...int) []float64 {
	out := make([]float64, 0, segmentLength*len(periods))
	for _, p := range periods {
		out = append(out, ClickTrain(segmentLength, p, 0)...)
	}
	return out
}

// Onsets returns the indices of the non-zero samples of x.
func Onsets(x []float64) []int {
	var out []int
	for i, v := range x {
		if v != 0 {
			out = append(out, i)
		}
	}
	return out
}
