package filters

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// RemoveMean returns a copy of signal with its arithmetic mean subtracted.
//
// This is block DC removal: a whole frame is available at once, so the DC
// component is exactly the frame mean and no filter state is carried between
// frames. A steady microphone bias otherwise adds a constant positive term to
// every autocorrelation lag.
func RemoveMean(signal []float64) []float64 {
	output := make([]float64, len(signal))
	copy(output, signal)
	RemoveMeanInPlace(output)
	return output
}

// RemoveMeanInPlace subtracts the mean of signal from every sample and
// returns the mean that was removed.
func RemoveMeanInPlace(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	mean := common.Mean(signal)
	for i := range signal {
		signal[i] -= mean
	}
	return mean
}
