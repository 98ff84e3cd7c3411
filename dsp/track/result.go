package track

import (
	"fmt"

	"github.com/cwbudde/algo-beat/dsp/tempo"
)

// Frame is the analysis of one window.
type Frame struct {
	Index    int // window number
	Offset   int // first envelope sample of the window
	Estimate tempo.Estimate
	Phase    int  // first beat relative to Offset, in [0, Estimate.Lag)
	Step     bool // tempo changes abruptly at this window
	// Consistent reports whether the lag agrees with neighboring windows.
	Consistent bool
	// Refined reports whether the lag was re-estimated from its neighbors.
	Refined bool
}

// Result holds the per-window estimates and the assembled beat track.
type Result struct {
	Frames []Frame
	// Beats are envelope indices in strictly increasing order.
	Beats []int
}

// Tempo returns the BPM of every frame in window order.
func (r *Result) Tempo() []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Estimate.BPM
	}
	return out
}

// MeanBPM returns the mean tempo over all frames, or 0 without frames.
func (r *Result) MeanBPM() float64 {
	if len(r.Frames) == 0 {
		return 0
	}
	var sum float64
	for _, f := range r.Frames {
		sum += f.Estimate.BPM
	}
	return sum / float64(len(r.Frames))
}

// Steps returns the indices of frames flagged as tempo steps.
func (r *Result) Steps() []int {
	var out []int
	for _, f := range r.Frames {
		if f.Step {
			out = append(out, f.Index)
		}
	}
	return out
}

// BeatSeconds converts the beat track to seconds using env's time base.
func (r *Result) BeatSeconds(env Envelope) []float64 {
	out := make([]float64, len(r.Beats))
	for i, b := range r.Beats {
		out[i] = env.Seconds(b)
	}
	return out
}

// BeatSamples converts the beat track to audio sample indices using env's
// hop length.
func (r *Result) BeatSamples(env Envelope) []int {
	out := make([]int, len(r.Beats))
	for i, b := range r.Beats {
		out[i] = env.AudioSample(b)
	}
	return out
}

// WindowError reports the analysis window that failed.
type WindowError struct {
	Index  int
	Offset int
	Err    error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("track: window %d at offset %d: %v", e.Index, e.Offset, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}
