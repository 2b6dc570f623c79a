package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Hann represents a symmetric Hann window.
// Tapering the frame edges to zero keeps the autocorrelation from picking up
// the discontinuity between the first and last sample.
type Hann struct {
	size         int
	coefficients []float64
}

// NewHann creates a new Hann window of the given size
func NewHann(size int) *Hann {
	if size < 0 {
		size = 0
	}

	h := &Hann{size: size}
	if size > 0 {
		h.coefficients = window.Hann(size)
	}
	return h
}

// Apply applies the window to a signal (creates new array)
func (h *Hann) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i := range h.size {
		windowed[i] = signal[i] * h.coefficients[i]
	}

	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := range h.size {
		signal[i] *= h.coefficients[i]
	}

	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// Size returns the window size
func (h *Hann) Size() int {
	return h.size
}
