package filters

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

func TestRemoveMean(t *testing.T) {
	signal := []float64{1.5, 2.5, 0.5, 3.5}
	out := RemoveMean(signal)

	if math.Abs(common.Mean(out)) > 1e-12 {
		t.Errorf("mean after removal = %v, want 0", common.Mean(out))
	}
	if signal[0] != 1.5 {
		t.Error("RemoveMean must not modify its input")
	}
	if math.Abs(out[0]-(-0.5)) > 1e-12 {
		t.Errorf("out[0] = %v, want -0.5", out[0])
	}
}

func TestRemoveMeanInPlace(t *testing.T) {
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = 0.3 + 0.2*math.Sin(2*math.Pi*float64(i)/100)
	}

	removed := RemoveMeanInPlace(signal)
	if math.Abs(removed-0.3) > 1e-9 {
		t.Errorf("removed mean = %v, want 0.3", removed)
	}
	if math.Abs(common.Mean(signal)) > 1e-12 {
		t.Errorf("residual mean = %v", common.Mean(signal))
	}
}

func TestRemoveMeanEmpty(t *testing.T) {
	if got := RemoveMeanInPlace(nil); got != 0 {
		t.Errorf("empty mean = %v, want 0", got)
	}
	if got := RemoveMean(nil); len(got) != 0 {
		t.Errorf("empty output length = %d", len(got))
	}
}
