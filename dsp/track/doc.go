// Package track turns an onset envelope into a tempo curve and a beat track.
//
// The envelope is cut into analysis windows of Config.WindowLength samples,
// Config.HopLength samples apart. Each window is analyzed independently and
// in parallel:
//
//  1. normalized autocorrelation (package acf)
//  2. weighting: a tempo prior around Config.ExpectedBPM (tempo.BiasWeights)
//     or, without a prior, a Rayleigh comb (comb.Rayleigh)
//  3. first-maximum lag pick and lag-to-BPM conversion (tempo.EstimateTempo)
//  4. beat phase by onset alignment: the phase whose impulse comb at the
//     winning lag collects the highest mean envelope value
//
// The per-window lags then pass through a stability.Detector. A window that
// disagrees with its neighbors without sitting on a tempo step is estimated
// again with a Gaussian comb centered on the median lag of its neighbors.
//
// # Beat assembly
//
// Window i owns the envelope samples from its offset up to the next window's
// offset; the last window owns the rest of the envelope. The first window and
// every window flagged as a tempo step anchor the beat grid at their own
// phase. All other windows continue the grid from the last emitted beat using
// their own lag, snapping the first continued beat onto their own phase grid
// when it lies within a quarter lag. Beats are envelope indices in strictly
// increasing order.
//
// Any window failure aborts tracking with a *WindowError naming the window.
package track
