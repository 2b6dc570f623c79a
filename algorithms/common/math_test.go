package common

import (
	"math"
	"testing"
)

func TestMeanAndRMS(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		wantMean float64
		wantRMS  float64
	}{
		{"empty", nil, 0, 0},
		{"constant", []float64{2, 2, 2, 2}, 2, 2},
		{"symmetric", []float64{1, -1, 1, -1}, 0, 1},
		{"ramp", []float64{0, 1, 2, 3}, 1.5, math.Sqrt(14.0 / 4.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.data); math.Abs(got-tt.wantMean) > 1e-12 {
				t.Errorf("Mean = %v, want %v", got, tt.wantMean)
			}
			if got := RMS(tt.data); math.Abs(got-tt.wantRMS) > 1e-12 {
				t.Errorf("RMS = %v, want %v", got, tt.wantRMS)
			}
		})
	}
}

func TestRMSOfSine(t *testing.T) {
	n := 4410
	data := make([]float64, n)
	for i := range n {
		data[i] = 0.5 * math.Sin(2*math.Pi*100*float64(i)/44100)
	}
	want := 0.5 / math.Sqrt2
	if got := RMS(data); math.Abs(got-want) > 1e-6 {
		t.Errorf("RMS of sine = %v, want %v", got, want)
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite([]float64{0, 1, -1}) {
		t.Error("finite data reported non-finite")
	}
	if AllFinite([]float64{0, math.NaN()}) {
		t.Error("NaN not detected")
	}
	if AllFinite([]float64{math.Inf(-1)}) {
		t.Error("-Inf not detected")
	}
}

func TestIsFinitePositive(t *testing.T) {
	for _, v := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if IsFinitePositive(v) {
			t.Errorf("IsFinitePositive(%v) = true", v)
		}
	}
	if !IsFinitePositive(440) {
		t.Error("IsFinitePositive(440) = false")
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []int{1, 2, 2048, 16384} {
		if !IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = false", n)
		}
	}
	for _, n := range []int{0, -4, 3, 3000} {
		if IsPowerOfTwo(n) {
			t.Errorf("IsPowerOfTwo(%d) = true", n)
		}
	}
}

func TestParabolicOffset(t *testing.T) {
	// samples of y = -(x-10.3)^2 around x = 10
	f := func(x float64) float64 { return -(x - 10.3) * (x - 10.3) }
	data := make([]float64, 20)
	for i := range data {
		data[i] = f(float64(i))
	}
	if got := ParabolicOffset(data, 10); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("offset = %v, want 0.3", got)
	}

	flat := []float64{1, 1, 1}
	if got := ParabolicOffset(flat, 1); got != 0 {
		t.Errorf("flat offset = %v, want 0", got)
	}

	if got := ParabolicOffset(data, 0); got != 0 {
		t.Errorf("edge offset = %v, want 0", got)
	}

	// A lopsided triple would put the vertex far away; it is clamped.
	skew := []float64{0, 1, 0.999999}
	if got := ParabolicOffset(skew, 1); got > 0.5 || got < -0.5 {
		t.Errorf("offset %v not clamped to ±0.5", got)
	}
}
