package common

import (
	"math"
)

// ParabolicOffset fits a parabola through data[peakIdx-1], data[peakIdx] and
// data[peakIdx+1] and returns the vertex offset relative to peakIdx.
//
// The offset is clamped to ±0.5 samples; a degenerate (flat or non-finite)
// fit, or a peak on the slice edge, yields 0.
func ParabolicOffset(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return 0
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	denominator := y1 - 2*y2 + y3
	if denominator == 0 {
		return 0
	}

	offset := 0.5 * (y1 - y3) / denominator
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return 0
	}

	return Clamp(offset, -0.5, 0.5)
}
