package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared by the frame-level algorithms, built on gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square energy
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	// floats.Norm scales internally, so very small or large samples don't under/overflow
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// AllFinite reports whether data holds no NaN or infinite values
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsFinitePositive reports whether v is a finite number greater than zero
func IsFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Clamp limits value to [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsPowerOfTwo checks if n is a power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
