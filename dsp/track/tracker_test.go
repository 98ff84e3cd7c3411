package track

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-beat/dsp/acf"
	"github.com/cwbudde/algo-beat/dsp/core"
	"github.com/cwbudde/algo-beat/dsp/signal"
	"github.com/cwbudde/algo-beat/internal/testutil"
)

const (
	testSampleRate = 44100.0
	testHop        = 441.0 // 100 envelope points per second
)

func newTestTracker(t *testing.T, cfg Config, opts ...Option) *Tracker {
	t.Helper()
	tr, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func runTrack(t *testing.T, tr *Tracker, env Envelope) *Result {
	t.Helper()
	res, err := tr.Track(context.Background(), env)
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	return res
}

func TestTrackSingleWindow(t *testing.T) {
	values := testutil.ClickTrain(2000, 500, 0)
	tr := newTestTracker(t, Config{WindowLength: 2000, HopLength: 2000, ExpectedBPM: 5292})

	res := runTrack(t, tr, Envelope{Values: values, SampleRate: 44100, HopLength: 1})

	if len(res.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(res.Frames))
	}
	f := res.Frames[0]
	if f.Estimate.Lag != 500 {
		t.Fatalf("lag = %d, want 500", f.Estimate.Lag)
	}
	if math.Abs(f.Estimate.BPM-5292) > 1e-9 {
		t.Fatalf("bpm = %v, want 5292", f.Estimate.BPM)
	}
	if f.Step || !f.Consistent || f.Refined {
		t.Fatalf("flags = step %v consistent %v refined %v, want false true false", f.Step, f.Consistent, f.Refined)
	}
	testutil.RequireIndicesEqual(t, res.Beats, []int{0, 500, 1000, 1500})
}

func TestTrackSteadyTempo(t *testing.T) {
	values := testutil.ClickTrain(3000, 50, 7)
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bias weights", cfg: Config{WindowLength: 512, HopLength: 128, ExpectedBPM: 120}},
		{name: "rayleigh comb", cfg: Config{WindowLength: 512, HopLength: 128, Sensitivity: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runTrack(t, newTestTracker(t, tt.cfg), env)

			if want := len(tt.cfg.Offsets(len(values))); len(res.Frames) != want {
				t.Fatalf("frames = %d, want %d", len(res.Frames), want)
			}
			for _, f := range res.Frames {
				if f.Estimate.Lag != 50 {
					t.Fatalf("frame %d lag = %d, want 50", f.Index, f.Estimate.Lag)
				}
				if f.Step || !f.Consistent || f.Refined {
					t.Fatalf("frame %d flags = step %v consistent %v refined %v", f.Index, f.Step, f.Consistent, f.Refined)
				}
				if (f.Offset+f.Phase-7)%50 != 0 {
					t.Fatalf("frame %d phase %d not on a click", f.Index, f.Phase)
				}
			}
			testutil.RequireIndicesEqual(t, res.Beats, testutil.Onsets(values))
			testutil.RequireSliceNearlyEqual(t, res.Tempo(), constant(len(res.Frames), 120), 1e-9)
			if math.Abs(res.MeanBPM()-120) > 1e-9 {
				t.Fatalf("MeanBPM() = %v, want 120", res.MeanBPM())
			}
		})
	}
}

func TestTrackTempoStep(t *testing.T) {
	values := testutil.ClickTrainSegments(1536, 50, 40)
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}
	tr := newTestTracker(t, Config{WindowLength: 512, HopLength: 512, Sensitivity: 45})

	res := runTrack(t, tr, env)

	wantLags := []int{50, 50, 50, 40, 40, 40}
	if len(res.Frames) != len(wantLags) {
		t.Fatalf("frames = %d, want %d", len(res.Frames), len(wantLags))
	}
	for i, f := range res.Frames {
		if f.Estimate.Lag != wantLags[i] {
			t.Fatalf("frame %d lag = %d, want %d", i, f.Estimate.Lag, wantLags[i])
		}
	}
	testutil.RequireIndicesEqual(t, res.Steps(), []int{3})
	testutil.RequireIndicesEqual(t, res.Beats, testutil.Onsets(values))
}

func TestTrackRefinesOutlier(t *testing.T) {
	values := testutil.ClickTrainSegments(512, 50, 50, 30, 50, 50)
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}
	cfg := Config{WindowLength: 512, HopLength: 512, Sensitivity: 45}

	t.Run("refined", func(t *testing.T) {
		res := runTrack(t, newTestTracker(t, cfg), env)

		f := res.Frames[2]
		if !f.Refined {
			t.Fatal("frame 2 not refined")
		}
		if f.Estimate.Lag != 60 {
			t.Fatalf("refined lag = %d, want 60", f.Estimate.Lag)
		}
		if len(res.Steps()) != 0 {
			t.Fatalf("steps = %v, want none", res.Steps())
		}
		for i, f := range res.Frames {
			if i != 2 && (f.Refined || f.Estimate.Lag != 50) {
				t.Fatalf("frame %d = %+v, want unrefined lag 50", i, f)
			}
		}
		testutil.RequireStrictlyIncreasing(t, res.Beats)
	})

	t.Run("disabled", func(t *testing.T) {
		res := runTrack(t, newTestTracker(t, cfg, WithRefinement(false)), env)

		f := res.Frames[2]
		if f.Refined || f.Estimate.Lag != 30 {
			t.Fatalf("frame 2 = %+v, want unrefined lag 30", f)
		}
		if f.Consistent {
			t.Fatal("frame 2 reported consistent")
		}
	})
}

type fixedDetector struct {
	step, consistent bool
}

func (d fixedDetector) DetectStep([]float64, int) bool        { return d.step }
func (d fixedDetector) DetectConsistency([]float64, int) bool { return d.consistent }

func TestTrackWithDetector(t *testing.T) {
	values := testutil.ClickTrainSegments(512, 50, 50, 30, 50, 50)
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}
	cfg := Config{WindowLength: 512, HopLength: 512, Sensitivity: 45}

	res := runTrack(t, newTestTracker(t, cfg, WithDetector(fixedDetector{consistent: true})), env)

	for _, f := range res.Frames {
		if f.Refined || f.Step || !f.Consistent {
			t.Fatalf("frame %d = %+v, want consistent and unrefined", f.Index, f)
		}
	}
	if res.Frames[2].Estimate.Lag != 30 {
		t.Fatalf("frame 2 lag = %d, want 30", res.Frames[2].Estimate.Lag)
	}
	testutil.RequireStrictlyIncreasing(t, res.Beats)
}

func TestTrackLastFrameOwnsTail(t *testing.T) {
	values := append(testutil.ClickTrain(1536, 50, 0), make([]float64, 100)...)
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}
	tr := newTestTracker(t, Config{WindowLength: 512, HopLength: 512, Sensitivity: 45})

	res := runTrack(t, tr, env)

	if len(res.Frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(res.Frames))
	}
	want := make([]int, 0, 33)
	for b := 0; b < len(values); b += 50 {
		want = append(want, b)
	}
	testutil.RequireIndicesEqual(t, res.Beats, want)
}

func TestTrackFractionalPeriodStaysInPhase(t *testing.T) {
	// 120 BPM at 44100/512 is a period of 43.07 envelope points, so the
	// integer lag of 43 is off by a fraction of a point on every beat.
	const n = 15500 // about three minutes
	g := signal.NewGenerator(core.WithSampleRate(44100), core.WithHopLength(512))
	values, err := g.ClickTrainBPM(120, 0, n)
	if err != nil {
		t.Fatalf("ClickTrainBPM() error = %v", err)
	}
	clicks := testutil.Onsets(values)

	res := runTrack(t, newTestTracker(t, DefaultConfig()), Envelope{Values: values, SampleRate: 44100, HopLength: 512})

	if len(res.Steps()) != 0 {
		t.Fatalf("steps = %v, want none", res.Steps())
	}
	if len(res.Beats) != len(clicks) {
		t.Fatalf("beats = %d, want %d", len(res.Beats), len(clicks))
	}
	testutil.RequireStrictlyIncreasing(t, res.Beats)
	for i, b := range res.Beats {
		if d := b - clicks[i]; d > 2 || d < -2 {
			t.Fatalf("beat %d at %d is %d points from click %d", i, b, d, clicks[i])
		}
	}
}

func TestTrackDeterministicAcrossWorkers(t *testing.T) {
	values := testutil.ClickTrainSegments(1024, 50, 44, 44, 36)
	for i, n := range testutil.DeterministicNoise(3, 0.05, len(values)) {
		values[i] += math.Abs(n)
	}
	env := Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop}
	cfg := Config{WindowLength: 512, HopLength: 128, ExpectedBPM: 130}

	serial := runTrack(t, newTestTracker(t, cfg, WithMaxWorkers(1)), env)
	parallel := runTrack(t, newTestTracker(t, cfg, WithMaxWorkers(8)), env)

	if !reflect.DeepEqual(serial, parallel) {
		t.Fatal("results differ between serial and parallel runs")
	}
	testutil.RequireStrictlyIncreasing(t, serial.Beats)
	for _, b := range serial.Beats {
		if b < 0 || b >= len(values) {
			t.Fatalf("beat %d outside envelope of length %d", b, len(values))
		}
	}
}

func TestTrackDoesNotModifyEnvelope(t *testing.T) {
	values := testutil.ClickTrain(1024, 40, 3)
	orig := append([]float64(nil), values...)
	tr := newTestTracker(t, Config{WindowLength: 256, HopLength: 64, ExpectedBPM: 150})

	runTrack(t, tr, Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop})

	testutil.RequireSliceNearlyEqual(t, values, orig, 0)
}

func TestTrackSilentWindow(t *testing.T) {
	values := testutil.ClickTrain(512, 50, 0)
	values = append(values, make([]float64, 512)...)
	values = append(values, testutil.ClickTrain(512, 50, 0)...)
	tr := newTestTracker(t, Config{WindowLength: 512, HopLength: 512, Sensitivity: 45})

	_, err := tr.Track(context.Background(), Envelope{Values: values, SampleRate: testSampleRate, HopLength: testHop})

	var werr *WindowError
	if !errors.As(err, &werr) {
		t.Fatalf("Track() error = %v, want *WindowError", err)
	}
	if werr.Index != 1 || werr.Offset != 512 {
		t.Fatalf("WindowError = {Index: %d, Offset: %d}, want {1, 512}", werr.Index, werr.Offset)
	}
	if !errors.Is(err, core.ErrInvalidInput) || !errors.Is(err, acf.ErrSilentInput) {
		t.Fatalf("Track() error = %v, want ErrSilentInput", err)
	}
}

func TestTrackInvalidInput(t *testing.T) {
	tr := newTestTracker(t, Config{WindowLength: 512, HopLength: 128, ExpectedBPM: 120})
	click := testutil.ClickTrain(1024, 50, 0)

	tests := []struct {
		name string
		env  Envelope
		want error
	}{
		{name: "empty", env: Envelope{SampleRate: testSampleRate, HopLength: testHop}, want: core.ErrInvalidInput},
		{name: "shorter than window", env: Envelope{Values: click[:511], SampleRate: testSampleRate, HopLength: testHop}, want: core.ErrInvalidInput},
		{name: "negative value", env: Envelope{Values: append([]float64{-1}, click...), SampleRate: testSampleRate, HopLength: testHop}, want: core.ErrInvalidInput},
		{name: "nan value", env: Envelope{Values: append([]float64{math.NaN()}, click...), SampleRate: testSampleRate, HopLength: testHop}, want: core.ErrInvalidInput},
		{name: "zero sample rate", env: Envelope{Values: click, HopLength: testHop}, want: core.ErrInvalidParameter},
		{name: "zero hop", env: Envelope{Values: click, SampleRate: testSampleRate}, want: core.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Track(context.Background(), tt.env); !errors.Is(err, tt.want) {
				t.Fatalf("Track() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTrackCanceledContext(t *testing.T) {
	tr := newTestTracker(t, Config{WindowLength: 512, HopLength: 128, ExpectedBPM: 120})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Track(ctx, Envelope{Values: testutil.ClickTrain(2048, 50, 0), SampleRate: testSampleRate, HopLength: testHop})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Track() error = %v, want context.Canceled", err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{WindowLength: 0, HopLength: -1}); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("New() error = %v, want ErrInvalidParameter", err)
	}

	cfg := DefaultConfig()
	tr := newTestTracker(t, cfg, nil, WithDetector(nil), WithLogger(nil), WithMaxWorkers(-3))
	if tr.Config() != cfg {
		t.Fatalf("Config() = %+v, want %+v", tr.Config(), cfg)
	}
	if tr.detector == nil || tr.logger == nil || tr.workers != 0 || !tr.refine {
		t.Fatalf("nil options replaced defaults: %+v", tr)
	}
}

func TestAlignPhase(t *testing.T) {
	tests := []struct {
		name string
		seg  []float64
		lag  int
		want int
	}{
		{name: "clicks", seg: testutil.ClickTrain(200, 40, 13), lag: 40, want: 13},
		{name: "flat ties to first", seg: constant(100, 1), lag: 25, want: 0},
		{name: "silent", seg: make([]float64, 64), lag: 16, want: 0},
		{name: "lag beyond segment", seg: testutil.Impulse(10, 7), lag: 50, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alignPhase(tt.seg, tt.lag); got != tt.want {
				t.Fatalf("alignPhase() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssemble(t *testing.T) {
	frame := func(offset, lag, phase int, step bool) Frame {
		f := Frame{Offset: offset, Phase: phase, Step: step}
		f.Estimate.Lag = lag
		return f
	}

	tests := []struct {
		name   string
		frames []Frame
		n      int
		want   []int
	}{
		{
			name:   "single frame walks back to region start",
			frames: []Frame{frame(0, 10, 3, false)},
			n:      35,
			want:   []int{3, 13, 23, 33},
		},
		{
			name:   "continuation snaps to the frame phase",
			frames: []Frame{frame(0, 10, 0, false), frame(25, 8, 2, false)},
			n:      50,
			want:   []int{0, 10, 20, 27, 35, 43},
		},
		{
			name:   "distant frame phase keeps the continuation",
			frames: []Frame{frame(0, 10, 0, false), frame(25, 8, 6, false)},
			n:      50,
			want:   []int{0, 10, 20, 28, 36, 44},
		},
		{
			name:   "step re-anchors",
			frames: []Frame{frame(0, 10, 0, false), frame(25, 8, 2, true)},
			n:      50,
			want:   []int{0, 10, 20, 27, 35, 43},
		},
		{
			name:   "step on the region boundary",
			frames: []Frame{frame(0, 10, 0, false), frame(20, 6, 0, true)},
			n:      40,
			want:   []int{0, 10, 20, 26, 32, 38},
		},
		{
			name: "no frames",
			n:    10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assemble(tt.frames, tt.n)
			testutil.RequireIndicesEqual(t, got, tt.want)
		})
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		name              string
		next, origin, lag int
		want              int
	}{
		{name: "on grid", next: 86, origin: 0, lag: 43, want: 86},
		{name: "one early", next: 85, origin: 0, lag: 43, want: 86},
		{name: "one late", next: 130, origin: 0, lag: 43, want: 129},
		{name: "origin after next", next: 100, origin: 110, lag: 43, want: 110},
		{name: "beyond quarter lag", next: 20, origin: 0, lag: 43, want: 20},
		{name: "unit lag", next: 7, origin: 3, lag: 1, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snap(tt.next, tt.origin, tt.lag); got != tt.want {
				t.Fatalf("snap() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name            string
		pos, start, lag int
		beats           []int
		want            int
	}{
		{name: "already at start", pos: 4, start: 4, lag: 10, want: 4},
		{name: "walk back", pos: 37, start: 10, lag: 10, want: 17},
		{name: "walk forward past last beat", pos: 5, start: 0, lag: 10, beats: []int{12}, want: 15},
		{name: "walk back stops after last beat", pos: 40, start: 0, lag: 10, beats: []int{21}, want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := anchor(tt.pos, tt.start, tt.lag, tt.beats); got != tt.want {
				t.Fatalf("anchor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBeatTimeConversion(t *testing.T) {
	env := Envelope{Values: []float64{0}, SampleRate: testSampleRate, HopLength: 512}
	res := &Result{Beats: []int{0, 7, 86}}

	if got, want := res.BeatSamples(env), []int{0, 3584, 44032}; !reflect.DeepEqual(got, want) {
		t.Fatalf("BeatSamples() = %v, want %v", got, want)
	}
	seconds := res.BeatSeconds(env)
	for i, b := range res.Beats {
		if want := float64(b) * 512 / testSampleRate; math.Abs(seconds[i]-want) > 1e-12 {
			t.Fatalf("BeatSeconds()[%d] = %v, want %v", i, seconds[i], want)
		}
	}
}
