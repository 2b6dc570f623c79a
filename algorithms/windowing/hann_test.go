package windowing

import (
	"math"
	"testing"
)

func TestHannShape(t *testing.T) {
	h := NewHann(9)
	c := h.Coefficients()
	if len(c) != 9 || h.Size() != 9 {
		t.Fatalf("size = %d/%d, want 9", len(c), h.Size())
	}
	if math.Abs(c[0]) > 1e-12 || math.Abs(c[8]) > 1e-12 {
		t.Errorf("edges should be zero, got %v and %v", c[0], c[8])
	}
	if math.Abs(c[4]-1) > 1e-12 {
		t.Errorf("centre should be 1, got %v", c[4])
	}
	for i := range 4 {
		if math.Abs(c[i]-c[8-i]) > 1e-12 {
			t.Errorf("window not symmetric at %d: %v vs %v", i, c[i], c[8-i])
		}
	}
}

func TestHannApply(t *testing.T) {
	h := NewHann(4)
	signal := []float64{2, 2, 2, 2}

	windowed := h.Apply(signal)
	coeffs := h.Coefficients()
	for i := range signal {
		if windowed[i] != 2*coeffs[i] {
			t.Errorf("windowed[%d] = %v, want %v", i, windowed[i], 2*coeffs[i])
		}
	}
	if signal[1] != 2 {
		t.Error("Apply must not modify its input")
	}

	if err := h.ApplyInPlace(signal); err != nil {
		t.Fatalf("ApplyInPlace: %v", err)
	}
	for i := range signal {
		if signal[i] != windowed[i] {
			t.Errorf("in-place[%d] = %v, want %v", i, signal[i], windowed[i])
		}
	}
}

func TestHannSizeMismatch(t *testing.T) {
	h := NewHann(8)
	if got := h.Apply(make([]float64, 4)); got != nil {
		t.Errorf("Apply on mismatched length = %v, want nil", got)
	}
	if err := h.ApplyInPlace(make([]float64, 4)); err == nil {
		t.Error("ApplyInPlace on mismatched length should fail")
	}
}

func TestCoefficientsIsCopy(t *testing.T) {
	h := NewHann(8)
	c := h.Coefficients()
	c[3] = 42
	if h.Coefficients()[3] == 42 {
		t.Error("Coefficients must return a copy")
	}
}
