package tempo

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-beat/dsp/acf"
	"github.com/cwbudde/algo-beat/dsp/core"
)

// Estimate is a single-frame tempo estimate.
type Estimate struct {
	BPM float64 // beats per minute
	Lag int     // winning autocorrelation lag in envelope samples
}

// String implements fmt.Stringer.
func (e Estimate) String() string {
	return fmt.Sprintf("%.2f BPM (lag %d)", e.BPM, e.Lag)
}

// LagToBPM converts a lag in envelope samples to beats per minute.
func LagToBPM(lag, sampleRate, hopLength float64) (float64, error) {
	if err := validateTimeBase(sampleRate, hopLength); err != nil {
		return 0, err
	}
	if !(lag > 0) || !core.IsFinite(lag) {
		return 0, fmt.Errorf("tempo: lag must be > 0: %v: %w", lag, core.ErrDegenerateEstimate)
	}
	return sampleRate / (hopLength * lag) * 60, nil
}

// BPMToLag converts beats per minute to a lag in envelope samples.
func BPMToLag(bpm, sampleRate, hopLength float64) (float64, error) {
	if err := validateTimeBase(sampleRate, hopLength); err != nil {
		return 0, err
	}
	if !(bpm > 0) || !core.IsFinite(bpm) {
		return 0, fmt.Errorf("tempo: bpm must be > 0: %v: %w", bpm, core.ErrInvalidParameter)
	}
	return sampleRate / hopLength * (60 / bpm), nil
}

// BiasWeights returns a Gaussian over lags 0..curveLength-1 centered on the
// lag implied by expectedBPM, with a standard deviation of curveLength/10.
// The peak value is 1 when the expected lag falls on an integer lag.
func BiasWeights(curveLength int, expectedBPM, sampleRate, hopLength float64) ([]float64, error) {
	if curveLength <= 0 {
		return nil, fmt.Errorf("tempo: curve length must be > 0: %d: %w", curveLength, core.ErrInvalidParameter)
	}
	expectedLag, err := BPMToLag(expectedBPM, sampleRate, hopLength)
	if err != nil {
		return nil, err
	}

	sigma := float64(curveLength) / 10
	out := make([]float64, curveLength)
	for lag := range out {
		d := float64(lag) - expectedLag
		out[lag] = math.Exp(-0.5 * d * d / (sigma * sigma))
	}
	return out, nil
}

// EstimateTempo weights curve by weights, picks the first maximum and
// converts its lag to BPM. A winning lag of 0 fails with
// core.ErrDegenerateEstimate.
func EstimateTempo(curve, weights []float64, sampleRate, hopLength float64) (Estimate, error) {
	if err := validateTimeBase(sampleRate, hopLength); err != nil {
		return Estimate{}, err
	}
	if len(curve) == 0 {
		return Estimate{}, fmt.Errorf("tempo: empty autocorrelation curve: %w", core.ErrInvalidInput)
	}
	if len(curve) != len(weights) {
		return Estimate{}, fmt.Errorf("tempo: curve length %d, weights length %d: %w",
			len(curve), len(weights), core.ErrShapeMismatch)
	}

	weighted := make([]float64, len(curve))
	vecmath.MulBlock(weighted, curve, weights)

	lag, _ := acf.FindPeak(weighted)
	if lag == 0 {
		return Estimate{}, fmt.Errorf("tempo: weighted curve peaks at lag 0: %w", core.ErrDegenerateEstimate)
	}

	bpm, err := LagToBPM(float64(lag), sampleRate, hopLength)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{BPM: bpm, Lag: lag}, nil
}

func validateTimeBase(sampleRate, hopLength float64) error {
	cfg := core.AnalysisConfig{SampleRate: sampleRate, HopLength: hopLength}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("tempo: %w", err)
	}
	return nil
}
