package comb

import (
	"fmt"

	"github.com/cwbudde/algo-beat/dsp/core"
)

func validateLength(n int) error {
	if n <= 0 {
		return fmt.Errorf("comb: window length must be > 0: %d: %w", n, core.ErrInvalidParameter)
	}
	return nil
}

func validateSensitivity(sensitivity float64) error {
	if !(sensitivity > 0) || !core.IsFinite(sensitivity) {
		return fmt.Errorf("comb: sensitivity must be > 0: %v: %w", sensitivity, core.ErrInvalidParameter)
	}
	return nil
}

func validateRayleigh(n int, sensitivity float64) error {
	if err := validateLength(n); err != nil {
		return err
	}
	return validateSensitivity(sensitivity)
}

func validateGaussian(n int, centerLag float64) error {
	if err := validateLength(n); err != nil {
		return err
	}
	if !(centerLag > 0) || !core.IsFinite(centerLag) {
		return fmt.Errorf("comb: center lag must be > 0: %v: %w", centerLag, core.ErrInvalidParameter)
	}
	return nil
}
