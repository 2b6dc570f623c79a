package stats

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// AutoCorrelation computes the unnormalized, time-domain autocorrelation
//
//	r(τ) = Σ x[i]·x[i+τ],  i = 0 .. N-1-τ
//
// for lags 0..maxLag. Each lag is a full-overlap dot product, so the values
// taper as τ grows; that taper is what lets the largest peak land on the
// fundamental period rather than one of its multiples.
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental frequency"
type AutoCorrelation struct {
	maxLag int
}

// NewAutoCorrelation creates a new auto-correlation calculator
func NewAutoCorrelation(maxLag int) *AutoCorrelation {
	return &AutoCorrelation{maxLag: maxLag}
}

// MaxLag returns the largest lag computed
func (ac *AutoCorrelation) MaxLag() int {
	return ac.maxLag
}

// Compute returns r(0..maxLag). maxLag must be smaller than the signal length.
func (ac *AutoCorrelation) Compute(signal []float64) ([]float64, error) {
	n := len(signal)
	if n == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if ac.maxLag < 0 || ac.maxLag >= n {
		return nil, fmt.Errorf("max lag (%d) must be in [0, %d)", ac.maxLag, n)
	}

	correlations := make([]float64, ac.maxLag+1)
	for lag := range correlations {
		correlations[lag] = floats.Dot(signal[:n-lag], signal[lag:])
	}

	return correlations, nil
}

// CompensateBias divides r by a reference autocorrelation (normally that of
// the analysis window) and rescales so the zero lag is unchanged:
//
//	r'(τ) = r(τ) · ref(0) / ref(τ)
//
// This removes the envelope the window imposes on r, leaving periodic peaks of
// equal height. Lags where ref is not positive are set to zero.
func CompensateBias(r, reference []float64) []float64 {
	n := min(len(r), len(reference))
	compensated := make([]float64, n)
	if n == 0 || reference[0] <= 0 {
		return compensated
	}

	for lag := range n {
		if reference[lag] > 0 {
			compensated[lag] = r[lag] * reference[0] / reference[lag]
		}
	}

	return compensated
}
