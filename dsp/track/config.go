package track

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-beat/dsp/comb"
	"github.com/cwbudde/algo-beat/dsp/core"
)

// Config selects the analysis windows and the tempo prior.
type Config struct {
	// WindowLength is the analysis window length in envelope samples.
	WindowLength int
	// HopLength is the distance between window starts in envelope samples.
	HopLength int
	// ExpectedBPM seeds a Gaussian tempo prior. Zero disables the prior.
	ExpectedBPM float64
	// TimeSignature is the number of beats per bar. Zero means unknown.
	// It is carried through but does not influence the analysis.
	TimeSignature int
	// Sensitivity is the Rayleigh comb shape used without a tempo prior.
	// Zero selects comb.DefaultSensitivity.
	Sensitivity float64
}

// DefaultConfig returns 512-sample windows every 128 samples, no tempo prior
// and the default Rayleigh sensitivity.
func DefaultConfig() Config {
	return Config{
		WindowLength: 512,
		HopLength:    128,
		Sensitivity:  comb.DefaultSensitivity,
	}
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error
	if c.WindowLength <= 0 {
		errs = append(errs, fmt.Errorf("track: window length must be > 0, got %d: %w", c.WindowLength, core.ErrInvalidParameter))
	}
	if c.HopLength <= 0 {
		errs = append(errs, fmt.Errorf("track: hop length must be > 0, got %d: %w", c.HopLength, core.ErrInvalidParameter))
	}
	if c.ExpectedBPM < 0 || !core.IsFinite(c.ExpectedBPM) {
		errs = append(errs, fmt.Errorf("track: expected bpm must be >= 0, got %v: %w", c.ExpectedBPM, core.ErrInvalidParameter))
	}
	if c.TimeSignature < 0 {
		errs = append(errs, fmt.Errorf("track: time signature must be >= 0, got %d: %w", c.TimeSignature, core.ErrInvalidParameter))
	}
	if c.Sensitivity < 0 || !core.IsFinite(c.Sensitivity) {
		errs = append(errs, fmt.Errorf("track: sensitivity must be >= 0, got %v: %w", c.Sensitivity, core.ErrInvalidParameter))
	}
	return errors.Join(errs...)
}

func (c Config) sensitivity() float64 {
	if c.Sensitivity == 0 {
		return comb.DefaultSensitivity
	}
	return c.Sensitivity
}

// Offsets returns the start of every full window that fits in n samples.
func (c Config) Offsets(n int) []int {
	if c.WindowLength <= 0 || c.HopLength <= 0 || n < c.WindowLength {
		return nil
	}
	offsets := make([]int, 0, (n-c.WindowLength)/c.HopLength+1)
	for off := 0; off+c.WindowLength <= n; off += c.HopLength {
		offsets = append(offsets, off)
	}
	return offsets
}
