package track

import (
	"fmt"

	"github.com/cwbudde/algo-beat/dsp/core"
)

// Envelope is an onset-strength signal with its time base. Values holds one
// non-negative sample per hop of HopLength audio samples at SampleRate Hz.
// The tracker never modifies Values.
type Envelope struct {
	Values     []float64
	SampleRate float64
	HopLength  float64
}

// Validate checks the time base and the sample values.
func (e Envelope) Validate() error {
	if err := e.TimeBase().Validate(); err != nil {
		return fmt.Errorf("track: envelope: %w", err)
	}
	if len(e.Values) == 0 {
		return fmt.Errorf("track: envelope is empty: %w", core.ErrInvalidInput)
	}
	for i, v := range e.Values {
		if v < 0 || !core.IsFinite(v) {
			return fmt.Errorf("track: envelope value %v at %d is not a finite non-negative number: %w", v, i, core.ErrInvalidInput)
		}
	}
	return nil
}

// TimeBase returns the envelope's sample rate and hop length.
func (e Envelope) TimeBase() core.AnalysisConfig {
	return core.AnalysisConfig{SampleRate: e.SampleRate, HopLength: e.HopLength}
}

// Seconds converts an envelope index to seconds from the start.
func (e Envelope) Seconds(index int) float64 {
	return float64(index) * e.HopLength / e.SampleRate
}

// AudioSample converts an envelope index to an audio sample index.
func (e Envelope) AudioSample(index int) int {
	return int(float64(index) * e.HopLength)
}
