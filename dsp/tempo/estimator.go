package tempo

import (
	"github.com/cwbudde/algo-beat/dsp/acf"
	"github.com/cwbudde/algo-beat/dsp/core"
)

// Estimator binds the single-frame pipeline to one envelope time base.
// It holds no mutable state and is safe for concurrent use.
type Estimator struct {
	cfg core.AnalysisConfig
}

// NewEstimator returns an Estimator for the given time base. Both the sample
// rate and the hop length must be set.
func NewEstimator(opts ...core.AnalysisOption) (*Estimator, error) {
	cfg := core.ApplyAnalysisOptions(opts...)
	if err := validateTimeBase(cfg.SampleRate, cfg.HopLength); err != nil {
		return nil, err
	}
	return &Estimator{cfg: cfg}, nil
}

// Config returns the estimator's time base.
func (e *Estimator) Config() core.AnalysisConfig {
	return e.cfg
}

// BiasWeights returns tempo-prior weights for a curve of length n.
func (e *Estimator) BiasWeights(n int, expectedBPM float64) ([]float64, error) {
	return BiasWeights(n, expectedBPM, e.cfg.SampleRate, e.cfg.HopLength)
}

// Estimate weights a precomputed autocorrelation curve and returns its tempo.
func (e *Estimator) Estimate(curve, weights []float64) (Estimate, error) {
	return EstimateTempo(curve, weights, e.cfg.SampleRate, e.cfg.HopLength)
}

// EstimateSignal autocorrelates signal and estimates its tempo. A nil
// weightFn uses uniform weights.
func (e *Estimator) EstimateSignal(signal []float64, weightFn func(n int) ([]float64, error)) (Estimate, []float64, error) {
	curve, err := acf.Autocorrelate(signal)
	if err != nil {
		return Estimate{}, nil, err
	}

	var weights []float64
	if weightFn == nil {
		weights = make([]float64, len(curve))
		for i := range weights {
			weights[i] = 1
		}
		// Lag 0 always wins under uniform weights; exclude it.
		weights[0] = 0
	} else if weights, err = weightFn(len(curve)); err != nil {
		return Estimate{}, nil, err
	}

	est, err := e.Estimate(curve, weights)
	if err != nil {
		return Estimate{}, nil, err
	}
	return est, curve, nil
}

// LagToBPM converts a lag to BPM in this time base.
func (e *Estimator) LagToBPM(lag float64) (float64, error) {
	return LagToBPM(lag, e.cfg.SampleRate, e.cfg.HopLength)
}

// BPMToLag converts BPM to a lag in this time base.
func (e *Estimator) BPMToLag(bpm float64) (float64, error) {
	return BPMToLag(bpm, e.cfg.SampleRate, e.cfg.HopLength)
}
