package temporal

import (
	"math"
	"testing"
)

func TestNoiseFloorMapping(t *testing.T) {
	tests := []struct {
		sensitivity float64
		want        float64
	}{
		{MinSensitivity, MaxNoiseFloor},
		{MaxSensitivity, MinNoiseFloor},
		{0.0505, (MaxNoiseFloor + MinNoiseFloor) / 2},
		{0, MaxNoiseFloor}, // clamped up
		{1, MinNoiseFloor}, // clamped down
		{math.NaN(), MaxNoiseFloor},
	}
	for _, tt := range tests {
		if got := NoiseFloor(tt.sensitivity); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NoiseFloor(%v) = %v, want %v", tt.sensitivity, got, tt.want)
		}
	}
}

func TestNoiseFloorMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for s := MinSensitivity; s <= MaxSensitivity; s += 0.001 {
		floor := NoiseFloor(s)
		if floor > prev {
			t.Fatalf("floor increased with sensitivity at %v: %v > %v", s, floor, prev)
		}
		prev = floor
	}
}

func sine(amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*110*float64(i)/44100)
	}
	return out
}

func TestNoiseGateOpen(t *testing.T) {
	quiet := sine(0.02, 4096) // RMS ≈ 0.014

	if open, _ := NewNoiseGate(MinSensitivity).Open(quiet); open {
		t.Error("quiet frame should be gated at the lowest sensitivity")
	}
	if open, rms := NewNoiseGate(MaxSensitivity).Open(quiet); !open {
		t.Errorf("quiet frame (rms %v) should pass at the highest sensitivity", rms)
	}

	loud := sine(0.5, 4096)
	if open, _ := NewNoiseGate(0.01).Open(loud); !open {
		t.Error("loud frame should pass at nominal sensitivity")
	}
}

func TestNoiseGateSilence(t *testing.T) {
	silence := make([]float64, 4096)
	for _, s := range []float64{MinSensitivity, 0.01, MaxSensitivity} {
		if open, _ := NewNoiseGate(s).Open(silence); open {
			t.Errorf("all-zero frame opened the gate at sensitivity %v", s)
		}
	}
	if open, _ := NewNoiseGate(MaxSensitivity).Open(nil); open {
		t.Error("empty frame opened the gate")
	}
}
