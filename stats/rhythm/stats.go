// Package rhythm summarizes tempo curves and beat tracks.
package rhythm

import (
	"math"

	"github.com/cwbudde/algo-beat/dsp/core"
)

// Stats holds summary statistics of a sequence of tempo values in BPM.
type Stats struct {
	Count    int
	Mean     float64
	Median   float64
	StdDev   float64 // population standard deviation
	Min      float64
	MinPos   int
	Max      float64
	MaxPos   int
	Range    float64 // max - min
	Skewness float64
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm, plus a sort for the median. An empty input gives NaN for every
// value field.
func Calculate(values []float64) Stats {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, Range: nan, Skewness: nan}
	}

	var mean, m2, m3 float64
	maxVal, maxPos := values[0], 0
	minVal, minPos := values[0], 0

	for i, x := range values {
		ni := float64(i + 1)
		delta := x - mean
		deltaN := delta / ni
		term1 := delta * deltaN * float64(i)

		// M3 must be updated before M2.
		m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		if x > maxVal {
			maxVal, maxPos = x, i
		}
		if x < minVal {
			minVal, minPos = x, i
		}
	}

	nf := float64(n)
	variance := m2 / nf
	var skewness float64
	if variance > 0 {
		skewness = (m3 / nf) / (variance * math.Sqrt(variance))
	}

	return Stats{
		Count:    n,
		Mean:     mean,
		Median:   core.Median(values),
		StdDev:   math.Sqrt(variance),
		Min:      minVal,
		MinPos:   minPos,
		Max:      maxVal,
		MaxPos:   maxPos,
		Range:    maxVal - minVal,
		Skewness: skewness,
	}
}

// Intervals returns the distances between consecutive beats.
func Intervals(beats []int) []int {
	if len(beats) < 2 {
		return nil
	}
	out := make([]int, len(beats)-1)
	for i := range out {
		out[i] = beats[i+1] - beats[i]
	}
	return out
}

// BeatTempo converts each inter-beat interval to BPM at frameRate envelope
// points per second. Non-positive intervals are skipped.
func BeatTempo(beats []int, frameRate float64) []float64 {
	intervals := Intervals(beats)
	out := make([]float64, 0, len(intervals))
	for _, d := range intervals {
		if d > 0 {
			out = append(out, 60*frameRate/float64(d))
		}
	}
	return out
}

// Stability returns the share of inter-beat intervals within tolerance,
// relative, of the median interval. It is 1 for fewer than two intervals.
func Stability(beats []int, tolerance float64) float64 {
	intervals := Intervals(beats)
	if len(intervals) < 2 {
		return 1
	}
	f := make([]float64, len(intervals))
	for i, d := range intervals {
		f[i] = float64(d)
	}
	med := core.Median(f)

	within := 0
	for _, d := range f {
		if core.RelativeDiff(d, med) <= tolerance {
			within++
		}
	}
	return float64(within) / float64(len(f))
}
