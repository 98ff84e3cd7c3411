package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-beat/dsp/core"
)

// Generator creates deterministic onset envelopes for one time base.
type Generator struct {
	cfg  core.AnalysisConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a generator for the given envelope time base.
func NewGenerator(opts ...core.AnalysisOption) *Generator {
	return NewGeneratorWithOptions(opts)
}

// NewGeneratorWithOptions creates a generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.AnalysisOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyAnalysisOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator time base.
func (g *Generator) Config() core.AnalysisConfig {
	return g.cfg
}

// SetSeed updates the noise seed.
func (g *Generator) SetSeed(seed int64) {
	g.seed = seed
}

// Seed returns the noise seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// ClickTrain places an impulse of the given amplitude every period samples,
// starting at phase.
func (g *Generator) ClickTrain(period, phase int, amplitude float64, samples int) ([]float64, error) {
	if err := validateSamples("click train", samples); err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, fmt.Errorf("signal: click train period must be > 0: %d: %w", period, core.ErrInvalidParameter)
	}
	if phase < 0 {
		return nil, fmt.Errorf("signal: click train phase must be >= 0: %d: %w", phase, core.ErrInvalidParameter)
	}
	out := make([]float64, samples)
	for i := phase; i < samples; i += period {
		out[i] = amplitude
	}
	return out, nil
}

// ClickTrainBPM places unit impulses at the given tempo. Click k lands on
// the envelope index nearest to phase + k·period, where the period follows
// from the generator's time base.
func (g *Generator) ClickTrainBPM(bpm float64, phase, samples int) ([]float64, error) {
	if err := validateSamples("click train", samples); err != nil {
		return nil, err
	}
	if err := g.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("signal: %w", err)
	}
	if !(bpm > 0) || !core.IsFinite(bpm) {
		return nil, fmt.Errorf("signal: bpm must be > 0: %v: %w", bpm, core.ErrInvalidParameter)
	}
	if phase < 0 {
		return nil, fmt.Errorf("signal: click train phase must be >= 0: %d: %w", phase, core.ErrInvalidParameter)
	}

	period := g.cfg.FrameRate() * 60 / bpm
	out := make([]float64, samples)
	for k := 0; ; k++ {
		i := phase + int(math.Round(float64(k)*period))
		if i >= samples {
			break
		}
		out[i] = 1
	}
	return out, nil
}

// Segments concatenates click trains of segmentSamples each, one per tempo.
// Every segment starts with a click.
func (g *Generator) Segments(bpms []float64, segmentSamples int) ([]float64, error) {
	if len(bpms) == 0 {
		return nil, fmt.Errorf("signal: segments need at least one tempo: %w", core.ErrInvalidParameter)
	}
	out := make([]float64, 0, len(bpms)*max(segmentSamples, 0))
	for _, bpm := range bpms {
		seg, err := g.ClickTrainBPM(bpm, 0, segmentSamples)
		if err != nil {
			return nil, err
		}
		out = append(out, seg...)
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if err := validateSamples("noise", samples); err != nil {
		return nil, err
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f: %w", amplitude, core.ErrInvalidParameter)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// AddNoise returns data plus rectified white noise, so a non-negative
// envelope stays non-negative.
func (g *Generator) AddNoise(data []float64, amplitude float64) ([]float64, error) {
	noise, err := g.WhiteNoise(amplitude, len(data))
	if err != nil {
		return nil, err
	}
	for i, v := range noise {
		noise[i] = data[i] + math.Abs(v)
	}
	return noise, nil
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("signal: normalize target peak must be >= 0: %f: %w", targetPeak, core.ErrInvalidParameter)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("signal: normalize input must not be empty: %w", core.ErrInvalidInput)
	}

	out := make([]float64, len(data))
	maxAbs := vecmath.MaxAbs(data)
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}
	vecmath.ScaleBlock(out, data, targetPeak/maxAbs)
	return out, nil
}

func validateSamples(what string, samples int) error {
	if samples <= 0 {
		return fmt.Errorf("signal: %s samples must be > 0: %d: %w", what, samples, core.ErrInvalidParameter)
	}
	return nil
}
