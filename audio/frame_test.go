package audio

import (
	"errors"
	"math"
	"testing"
)

func TestValidFrameSize(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{1024, false},
		{2048, true},
		{3000, false},
		{4096, true},
		{8192, true},
		{16384, true},
		{32768, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := ValidFrameSize(tt.n); got != tt.want {
			t.Errorf("ValidFrameSize(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestFrameValidate(t *testing.T) {
	good := Frame{Samples: make([]float64, 4096), SampleRate: 44100}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid frame rejected: %v", err)
	}

	short := Frame{Samples: make([]float64, 100), SampleRate: 44100}
	if err := short.Validate(); !errors.Is(err, ErrFrameSize) {
		t.Errorf("short frame: got %v, want ErrFrameSize", err)
	}

	noRate := Frame{Samples: make([]float64, 2048)}
	if err := noRate.Validate(); !errors.Is(err, ErrSampleRate) {
		t.Errorf("zero rate: got %v, want ErrSampleRate", err)
	}

	nan := Frame{Samples: make([]float64, 2048), SampleRate: 48000}
	nan.Samples[7] = math.NaN()
	if err := nan.Validate(); !errors.Is(err, ErrNonFiniteFrame) {
		t.Errorf("NaN frame: got %v, want ErrNonFiniteFrame", err)
	}
}

func TestFrameDuration(t *testing.T) {
	f := Frame{Samples: make([]float64, 4410), SampleRate: 44100}
	if got := f.Duration(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Duration = %v, want 0.1", got)
	}
	if got := (Frame{}).Duration(); got != 0 {
		t.Errorf("empty frame Duration = %v, want 0", got)
	}
}
