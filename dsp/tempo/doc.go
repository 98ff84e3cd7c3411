// Package tempo turns an autocorrelation curve into a tempo estimate.
//
// A weighting curve is multiplied onto the autocorrelation to suppress octave
// errors, the first maximum of the product picks the beat lag, and the lag is
// converted to beats per minute using the envelope's time base:
//
//	bpm = sampleRate / (hopLength * lag) * 60
//
// [BiasWeights] builds a Gaussian prior around an expected tempo. Sample rate
// and hop length are always explicit arguments; nothing in this package
// assumes a default time base.
package tempo
