package track

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sourcegraph/conc/iter"

	"github.com/cwbudde/algo-beat/dsp/acf"
	"github.com/cwbudde/algo-beat/dsp/comb"
	"github.com/cwbudde/algo-beat/dsp/core"
	"github.com/cwbudde/algo-beat/dsp/stability"
	"github.com/cwbudde/algo-beat/dsp/tempo"
)

// refineRadius is the number of windows on each side whose median lag
// centers the refinement comb.
const refineRadius = 2

// Option configures a Tracker.
type Option func(*Tracker)

// WithDetector replaces the default stability detector.
func WithDetector(d stability.Detector) Option {
	return func(t *Tracker) {
		if d != nil {
			t.detector = d
		}
	}
}

// WithMaxWorkers limits the number of windows analyzed concurrently.
// Values <= 0 use GOMAXPROCS.
func WithMaxWorkers(n int) Option {
	return func(t *Tracker) {
		t.workers = max(0, n)
	}
}

// WithLogger sets the logger used for per-window debug output.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRefinement enables or disables re-estimation of inconsistent windows.
func WithRefinement(enabled bool) Option {
	return func(t *Tracker) {
		t.refine = enabled
	}
}

// Tracker runs the frame-wise tempo analysis. A Tracker holds no per-call
// state and may be shared between goroutines.
type Tracker struct {
	cfg      Config
	detector stability.Detector
	workers  int
	refine   bool
	logger   *slog.Logger
}

// New validates cfg and returns a Tracker.
func New(cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tracker{
		cfg:      cfg,
		detector: stability.DefaultNeighborhood(),
		refine:   true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.cfg
}

// window is the per-window working state shared between the stages.
type window struct {
	frame Frame
	curve []float64
	err   error
}

// Track analyzes env and assembles its beat track.
func (t *Tracker) Track(ctx context.Context, env Envelope) (*Result, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if len(env.Values) < t.cfg.WindowLength {
		return nil, fmt.Errorf("track: envelope length %d is shorter than window length %d: %w",
			len(env.Values), t.cfg.WindowLength, core.ErrInvalidInput)
	}

	est, err := tempo.NewEstimator(core.WithSampleRate(env.SampleRate), core.WithHopLength(env.HopLength))
	if err != nil {
		return nil, err
	}
	weights, err := t.weights(est)
	if err != nil {
		return nil, err
	}

	offsets := t.cfg.Offsets(len(env.Values))
	windows := make([]window, len(offsets))
	for i, off := range offsets {
		windows[i].frame = Frame{Index: i, Offset: off}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	iter.Iterator[window]{MaxGoroutines: t.workers}.ForEach(windows, func(w *window) {
		seg := env.Values[w.frame.Offset : w.frame.Offset+t.cfg.WindowLength]
		w.curve, w.err = acf.Autocorrelate(seg)
		if w.err != nil {
			return
		}
		w.frame.Estimate, w.err = est.Estimate(w.curve, weights)
		if w.err != nil {
			return
		}
		w.frame.Phase = alignPhase(seg, w.frame.Estimate.Lag)
		t.logger.Debug("window estimated",
			"frame", w.frame.Index,
			"offset", w.frame.Offset,
			"bpm", w.frame.Estimate.BPM,
			"lag", w.frame.Estimate.Lag,
			"phase", w.frame.Phase)
	})

	for _, w := range windows {
		if w.err != nil {
			return nil, &WindowError{Index: w.frame.Index, Offset: w.frame.Offset, Err: w.err}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.stabilize(env, est, windows)

	frames := make([]Frame, len(windows))
	for i, w := range windows {
		frames[i] = w.frame
	}
	return &Result{
		Frames: frames,
		Beats:  assemble(frames, len(env.Values)),
	}, nil
}

// weights returns the lag weighting shared by all windows. Lag 0 carries no
// weight so that a weakly periodic window still yields a tempo.
func (t *Tracker) weights(est *tempo.Estimator) ([]float64, error) {
	if t.cfg.ExpectedBPM > 0 {
		w, err := est.BiasWeights(t.cfg.WindowLength, t.cfg.ExpectedBPM)
		if err != nil {
			return nil, err
		}
		w[0] = 0
		return w, nil
	}
	r, err := comb.Rayleigh(t.cfg.WindowLength, t.cfg.sensitivity())
	if err != nil {
		return nil, err
	}
	return comb.LagAligned(r), nil
}

// stabilize flags steps and inconsistent windows and re-estimates the latter
// around the median lag of their neighbors.
func (t *Tracker) stabilize(env Envelope, est *tempo.Estimator, windows []window) {
	periods := lags(windows)
	flags := stability.Analyze(t.detector, periods)

	if t.refine {
		for i := range windows {
			if flags.Consistent[i] || flags.Step[i] {
				continue
			}
			center := stability.LocalMedian(periods, i, refineRadius)
			if t.refineWindow(env, est, &windows[i], center) {
				t.logger.Debug("window refined",
					"frame", i,
					"from_lag", periods[i],
					"to_lag", windows[i].frame.Estimate.Lag,
					"center", center)
			}
		}
		periods = lags(windows)
		flags = stability.Analyze(t.detector, periods)
	}

	for i := range windows {
		windows[i].frame.Step = flags.Step[i]
		windows[i].frame.Consistent = flags.Consistent[i]
		if flags.Step[i] {
			t.logger.Debug("tempo step", "frame", i, "offset", windows[i].frame.Offset, "lag", periods[i])
		}
	}
}

// refineWindow re-estimates w with a Gaussian comb centered on center and
// reports whether the lag changed. When the comb finds no usable lag the
// first estimate stands.
func (t *Tracker) refineWindow(env Envelope, est *tempo.Estimator, w *window, center float64) bool {
	g, err := comb.Gaussian(t.cfg.WindowLength, center)
	if err != nil {
		t.logger.Debug("refinement skipped", "frame", w.frame.Index, "error", err)
		return false
	}
	refined, err := est.Estimate(w.curve, comb.LagAligned(g))
	if err != nil {
		t.logger.Debug("refinement skipped", "frame", w.frame.Index, "error", err)
		return false
	}
	if refined.Lag == w.frame.Estimate.Lag {
		return false
	}

	seg := env.Values[w.frame.Offset : w.frame.Offset+t.cfg.WindowLength]
	w.frame.Estimate = refined
	w.frame.Phase = alignPhase(seg, refined.Lag)
	w.frame.Refined = true
	return true
}

func lags(windows []window) []float64 {
	out := make([]float64, len(windows))
	for i, w := range windows {
		out[i] = float64(w.frame.Estimate.Lag)
	}
	return out
}

// alignPhase returns the phase in [0, lag) whose impulse comb with spacing
// lag has the highest mean envelope value over seg. Ties go to the earliest
// phase.
func alignPhase(seg []float64, lag int) int {
	best, bestScore := 0, math.Inf(-1)
	for phi := 0; phi < lag && phi < len(seg); phi++ {
		var sum float64
		teeth := 0
		for i := phi; i < len(seg); i += lag {
			sum += seg[i]
			teeth++
		}
		if score := sum / float64(teeth); score > bestScore {
			best, bestScore = phi, score
		}
	}
	return best
}

// assemble places beats over n envelope samples from the frame sequence.
func assemble(frames []Frame, n int) []int {
	var beats []int
	next := -1
	for i, f := range frames {
		start, end := f.Offset, n
		if i+1 < len(frames) {
			end = frames[i+1].Offset
		}
		lag := f.Estimate.Lag

		switch {
		case next < 0 || f.Step:
			next = anchor(f.Offset+f.Phase, start, lag, beats)
		case len(beats) > 0:
			next = snap(beats[len(beats)-1]+lag, f.Offset+f.Phase, lag)
		}

		for ; next < end; next += lag {
			beats = append(beats, next)
		}
	}
	return beats
}

// snap moves a continued beat onto the nearest point of the frame's own beat
// grid, origin + m·lag, when that point lies within lag/4 of it. The integer
// lag only approximates the period, so without this the grid drifts away from
// the onsets one rounding error per beat.
func snap(next, origin, lag int) int {
	m := int(math.Floor(float64(next-origin)/float64(lag) + 0.5))
	cand := origin + m*lag
	if d := cand - next; d <= lag/4 && -d <= lag/4 {
		return cand
	}
	return next
}

// anchor moves pos by whole lags to the earliest position that is not
// before start and lies after the last emitted beat.
func anchor(pos, start, lag int, beats []int) int {
	last := -1
	if len(beats) > 0 {
		last = beats[len(beats)-1]
	}
	for pos <= last {
		pos += lag
	}
	for pos-lag >= start && pos-lag > last {
		pos -= lag
	}
	return pos
}
