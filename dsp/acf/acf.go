package acf

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-beat/dsp/core"
)

// Errors returned by autocorrelation functions.
var (
	ErrEmptyInput  = fmt.Errorf("acf: empty input: %w", core.ErrInvalidInput)
	ErrSilentInput = fmt.Errorf("acf: zero-energy input: %w", core.ErrInvalidInput)
)

const (
	directThreshold = 256
	minFFTSize      = 8
)

// Autocorrelate returns the normalized non-negative-lag autocorrelation of
// signal. The result has len(signal) entries and result[0] == 1.
func Autocorrelate(signal []float64) ([]float64, error) {
	if len(signal) <= directThreshold {
		return Direct(signal)
	}
	return FFT(signal)
}

// Direct computes the normalized autocorrelation from its definition,
// r[k] = sum(x[i] * x[i+k]).
func Direct(signal []float64) ([]float64, error) {
	if err := validate(signal); err != nil {
		return nil, err
	}

	n := len(signal)
	out := make([]float64, n)
	for k := range out {
		out[k] = vecmath.DotProduct(signal[:n-k], signal[k:])
	}
	return normalize(out)
}

// FFT computes the normalized autocorrelation as the inverse transform of the
// zero-padded power spectrum.
func FFT(signal []float64) ([]float64, error) {
	if err := validate(signal); err != nil {
		return nil, err
	}

	n := len(signal)
	fftSize := max(nextPowerOf2(2*n-1), minFFTSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("acf: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range signal {
		padded[i] = complex(v, 0)
	}

	freq := make([]complex128, fftSize)
	if err := plan.Forward(freq, padded); err != nil {
		return nil, fmt.Errorf("acf: forward FFT failed: %w", err)
	}

	// |X|² is the transform of the autocorrelation.
	for i, c := range freq {
		freq[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}

	timeDomain := make([]complex128, fftSize)
	if err := plan.Inverse(timeDomain, freq); err != nil {
		return nil, fmt.Errorf("acf: inverse FFT failed: %w", err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = real(timeDomain[i])
	}
	return normalize(out)
}

// Raw returns the unnormalized two-sided autocorrelation of signal.
// The result has length 2*len(signal)-1 and index len(signal)-1 is lag 0.
func Raw(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptyInput
	}

	n := len(signal)
	out := make([]float64, 2*n-1)
	for k := 0; k < n; k++ {
		v := vecmath.DotProduct(signal[:n-k], signal[k:])
		out[n-1+k] = v
		out[n-1-k] = v
	}
	return out, nil
}

// FindPeak returns the index and value of the first maximum of curve.
// Returns -1 for an empty curve.
func FindPeak(curve []float64) (index int, value float64) {
	if len(curve) == 0 {
		return -1, 0
	}

	index = 0
	value = curve[0]
	for i, v := range curve {
		if v > value {
			index = i
			value = v
		}
	}
	return index, value
}

func validate(signal []float64) error {
	if len(signal) == 0 {
		return ErrEmptyInput
	}
	if vecmath.DotProduct(signal, signal) == 0 {
		return ErrSilentInput
	}
	return nil
}

// normalize scales r by its zero-lag value, which is the maximum of any
// autocorrelation. Dividing element by element keeps r[0] exactly 1.
func normalize(r []float64) ([]float64, error) {
	zeroLag := r[0]
	if !(zeroLag > 0) || !core.IsFinite(zeroLag) {
		return nil, ErrSilentInput
	}
	for i := range r {
		r[i] /= zeroLag
	}
	return r, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
