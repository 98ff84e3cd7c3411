package comb

import "math"

// DefaultSensitivity is the Rayleigh shape parameter in lags. At a frame rate
// of about 86 envelope points per second it places the peak near 120 BPM.
const DefaultSensitivity = 43.0

// Option configures filter generation.
type Option func(*config)

type config struct {
	centerLag   float64
	sensitivity float64
}

func defaultConfig() config {
	return config{sensitivity: DefaultSensitivity}
}

// WithCenterLag selects the Gaussian shape centered at lag. A lag of 0 keeps
// the Rayleigh shape.
func WithCenterLag(lag float64) Option {
	return func(c *config) {
		c.centerLag = lag
	}
}

// WithSensitivity sets the Rayleigh shape parameter.
func WithSensitivity(s float64) Option {
	return func(c *config) {
		c.sensitivity = s
	}
}

// Generate returns a weighting curve of length n. Without a center lag the
// curve is Rayleigh shaped, otherwise Gaussian around the center lag. The
// sensitivity must be positive in both cases.
func Generate(n int, opts ...Option) ([]float64, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := validateSensitivity(cfg.sensitivity); err != nil {
		return nil, err
	}
	if cfg.centerLag == 0 {
		return Rayleigh(n, cfg.sensitivity)
	}
	return Gaussian(n, cfg.centerLag)
}

// Rayleigh returns w[k-1] = (k/s²)·exp(-k²/(2s²)) for k = 1..n.
// The curve is positive and peaks at k = s.
func Rayleigh(n int, sensitivity float64) ([]float64, error) {
	if err := validateRayleigh(n, sensitivity); err != nil {
		return nil, err
	}

	s2 := sensitivity * sensitivity
	out := make([]float64, n)
	for i := range out {
		k := float64(i + 1)
		out[i] = k / s2 * math.Exp(-k*k/(2*s2))
	}
	return out, nil
}

// Gaussian returns a normal density over k = 1..n with mean centerLag and
// standard deviation centerLag/4, stored at index k-1.
func Gaussian(n int, centerLag float64) ([]float64, error) {
	if err := validateGaussian(n, centerLag); err != nil {
		return nil, err
	}

	sigma := centerLag / 4
	norm := 1 / (math.Sqrt(2*math.Pi) * sigma)
	out := make([]float64, n)
	for i := range out {
		d := (float64(i+1) - centerLag) / sigma
		out[i] = norm * math.Exp(-0.5*d*d)
	}
	return out, nil
}

// LagAligned returns a copy of a 1-based filter shifted onto a 0-based lag
// axis: out[0] = 0 and out[lag] = filter[lag-1]. The length is preserved, so
// the last filter value is dropped.
func LagAligned(filter []float64) []float64 {
	out := make([]float64, len(filter))
	if len(filter) > 1 {
		copy(out[1:], filter[:len(filter)-1])
	}
	return out
}

// PeakIndex returns the index of the first maximum of a filter, or -1 when
// the filter is empty.
func PeakIndex(filter []float64) int {
	if len(filter) == 0 {
		return -1
	}
	best := 0
	for i, v := range filter {
		if v > filter[best] {
			best = i
		}
	}
	return best
}
