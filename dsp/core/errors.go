package core

import "errors"

// Error taxonomy shared by the analysis packages. Package-level errors wrap
// one of these sentinels so callers can classify failures with errors.Is.
var (
	// ErrInvalidParameter reports a non-positive length, rate or shape argument.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidInput reports an empty or degenerate signal, e.g. all zeros.
	ErrInvalidInput = errors.New("invalid input")

	// ErrShapeMismatch reports curves whose lengths must agree but do not.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDegenerateEstimate reports a winning lag of zero, which has no finite tempo.
	ErrDegenerateEstimate = errors.New("degenerate estimate")
)
