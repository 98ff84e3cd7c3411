// Package acf computes normalized autocorrelation curves of onset envelopes.
//
// The curve holds the non-negative lags of the full linear (non-circular)
// autocorrelation, one value per lag from 0 to len(signal)-1, scaled so the
// zero-lag value is exactly 1:
//
//	curve, err := acf.Autocorrelate(envelope)
//	lag, _ := acf.FindPeak(curve[1:])
//
// # Algorithm Selection
//
// [Autocorrelate] picks an implementation by input length:
//   - length <= 256: [Direct], O(n²) dot products
//   - longer: [FFT], zero-padded power spectrum, O(n log n)
//
// Both produce the same values to numerical tolerance; the FFT path pads to
// at least 2n-1 points so no circular wrap-around leaks into the result.
//
// All-zero and empty inputs are rejected with core.ErrInvalidInput instead
// of producing NaN.
package acf
