// Package stability flags tempo discontinuities and locally corroborated
// estimates in a sequence of per-frame beat periods.
package stability

import (
	"math"

	"github.com/cwbudde/algo-beat/dsp/core"
)

// Detector inspects a read-only history of per-frame periods. Implementations
// must be pure: the same periods and index always give the same answer.
type Detector interface {
	// DetectStep reports whether the tempo changes abruptly at idx.
	DetectStep(periods []float64, idx int) bool
	// DetectConsistency reports whether periods[idx] agrees with its neighbors.
	DetectConsistency(periods []float64, idx int) bool
}

// Neighborhood compares each period with the periods around it.
//
// A step at idx means periods[idx-1] and periods[idx] differ by more than
// Tolerance, relative to the larger of the two, and so do the medians of the
// Radius+1 periods on either side of the boundary. The medians keep a single
// outlier from reading as a step. A period is consistent when at least
// MinAgreement of its neighbors within Radius lie within Tolerance of it.
type Neighborhood struct {
	Radius       int
	Tolerance    float64
	MinAgreement float64
}

// DefaultNeighborhood returns a detector with radius 2, a 10% tolerance
// and a simple-majority agreement rule.
func DefaultNeighborhood() Neighborhood {
	return Neighborhood{
		Radius:       2,
		Tolerance:    0.1,
		MinAgreement: 0.5,
	}
}

// DetectStep implements Detector.
func (n Neighborhood) DetectStep(periods []float64, idx int) bool {
	if idx <= 0 || idx >= len(periods) {
		return false
	}
	tol := n.tolerance()
	if core.RelativeDiff(periods[idx-1], periods[idx]) <= tol {
		return false
	}
	r := n.radius()
	before := periods[max(0, idx-r-1):idx]
	after := periods[idx:min(len(periods), idx+r+1)]
	return core.RelativeDiff(core.Median(before), core.Median(after)) > tol
}

// DetectConsistency implements Detector.
func (n Neighborhood) DetectConsistency(periods []float64, idx int) bool {
	if idx < 0 || idx >= len(periods) {
		return false
	}
	r := n.radius()
	lo, hi := max(0, idx-r), min(len(periods)-1, idx+r)

	neighbors, agree := 0, 0
	for i := lo; i <= hi; i++ {
		if i == idx {
			continue
		}
		neighbors++
		if core.RelativeDiff(periods[i], periods[idx]) <= n.tolerance() {
			agree++
		}
	}
	if neighbors == 0 {
		return true
	}
	return float64(agree) >= n.minAgreement()*float64(neighbors)
}

func (n Neighborhood) radius() int {
	if n.Radius < 1 {
		return 1
	}
	return n.Radius
}

func (n Neighborhood) minAgreement() float64 {
	if math.IsNaN(n.MinAgreement) {
		return 0
	}
	return core.Clamp(n.MinAgreement, 0, 1)
}

func (n Neighborhood) tolerance() float64 {
	if !(n.Tolerance > 0) {
		return 0
	}
	return n.Tolerance
}

// DetectStep runs DefaultNeighborhood().DetectStep.
func DetectStep(periods []float64, idx int) bool {
	return DefaultNeighborhood().DetectStep(periods, idx)
}

// DetectConsistency runs DefaultNeighborhood().DetectConsistency.
func DetectConsistency(periods []float64, idx int) bool {
	return DefaultNeighborhood().DetectConsistency(periods, idx)
}

// Flags holds detector output for every frame of a period sequence.
type Flags struct {
	Step       []bool
	Consistent []bool
}

// Analyze evaluates d at every index of periods.
func Analyze(d Detector, periods []float64) Flags {
	f := Flags{
		Step:       make([]bool, len(periods)),
		Consistent: make([]bool, len(periods)),
	}
	for i := range periods {
		f.Step[i] = d.DetectStep(periods, i)
		f.Consistent[i] = d.DetectConsistency(periods, i)
	}
	return f
}

// LocalMedian returns the median of the periods within radius of idx,
// excluding idx itself. It falls back to periods[idx] when there are no
// neighbors.
func LocalMedian(periods []float64, idx, radius int) float64 {
	lo, hi := max(0, idx-radius), min(len(periods)-1, idx+radius)
	neighbors := make([]float64, 0, hi-lo)
	for i := lo; i <= hi; i++ {
		if i != idx {
			neighbors = append(neighbors, periods[i])
		}
	}
	if len(neighbors) == 0 {
		return periods[idx]
	}
	return core.Median(neighbors)
}
