// Package comb generates lag-domain weighting curves used to emphasize
// expected periodicities in an autocorrelation curve before peak picking.
//
// Two shapes are available:
//
//   - Rayleigh: no preferred lag. The curve rises and decays with a single
//     sensitivity parameter and is used when no tempo prior exists.
//   - Gaussian: centered on a known lag with a width of a quarter of that lag.
//
// Both are evaluated for lags 1..n and stored at output index lag-1:
//
//	w, err := comb.Generate(512)                          // Rayleigh, sensitivity 43
//	w, err := comb.Generate(512, comb.WithCenterLag(86))  // Gaussian around lag 86
//
// [LagAligned] moves a curve onto a 0-based lag axis so it can be multiplied
// element-wise with an autocorrelation curve whose index 0 is lag 0.
package comb
