package core

import "fmt"

// AnalysisConfig carries the time base of an onset envelope: the sample rate
// of the audio it was derived from and the hop, in audio samples, between
// consecutive envelope points. There are no defaults; both must be supplied.
type AnalysisConfig struct {
	SampleRate float64
	HopLength  float64
}

// AnalysisOption mutates an AnalysisConfig.
type AnalysisOption func(*AnalysisConfig)

// WithSampleRate sets the source sample rate in Hz.
func WithSampleRate(sampleRate float64) AnalysisOption {
	return func(cfg *AnalysisConfig) {
		cfg.SampleRate = sampleRate
	}
}

// WithHopLength sets the number of audio samples between envelope points.
func WithHopLength(hopLength float64) AnalysisOption {
	return func(cfg *AnalysisConfig) {
		cfg.HopLength = hopLength
	}
}

// ApplyAnalysisOptions applies zero or more options to an empty config.
func ApplyAnalysisOptions(opts ...AnalysisOption) AnalysisConfig {
	var cfg AnalysisConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// FrameRate returns envelope points per second.
func (c AnalysisConfig) FrameRate() float64 {
	return c.SampleRate / c.HopLength
}

// Validate checks that the time base is usable.
func (c AnalysisConfig) Validate() error {
	if !(c.SampleRate > 0) || !IsFinite(c.SampleRate) {
		return fmt.Errorf("sample rate must be > 0: %v: %w", c.SampleRate, ErrInvalidParameter)
	}
	if !(c.HopLength > 0) || !IsFinite(c.HopLength) {
		return fmt.Errorf("hop length must be > 0: %v: %w", c.HopLength, ErrInvalidParameter)
	}
	return nil
}
