package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
)

// Sensitivity bounds and the noise floors they map onto.
const (
	MinSensitivity = 0.001
	MaxSensitivity = 0.1

	// Noise floor (RMS) at the least sensitive setting
	MaxNoiseFloor = 0.02
	// Noise floor (RMS) at the most sensitive setting
	MinNoiseFloor = 0.001
)

// NoiseFloor maps a microphone sensitivity linearly onto an RMS noise floor.
// Higher sensitivity gives a lower floor so quieter high strings still get
// through. Sensitivity outside [MinSensitivity, MaxSensitivity] is clamped.
func NoiseFloor(sensitivity float64) float64 {
	s := common.Clamp(sensitivity, MinSensitivity, MaxSensitivity)
	if math.IsNaN(sensitivity) {
		s = MinSensitivity
	}

	t := (s - MinSensitivity) / (MaxSensitivity - MinSensitivity)
	return MaxNoiseFloor - t*(MaxNoiseFloor-MinNoiseFloor)
}

// NoiseGate decides whether a frame carries enough energy to analyse.
type NoiseGate struct {
	sensitivity float64
}

// NewNoiseGate creates a gate for the given sensitivity
func NewNoiseGate(sensitivity float64) *NoiseGate {
	return &NoiseGate{sensitivity: sensitivity}
}

// Floor returns the RMS threshold currently in effect
func (g *NoiseGate) Floor() float64 {
	return NoiseFloor(g.sensitivity)
}

// Open reports whether the frame's RMS reaches the noise floor, along with
// the RMS itself. An empty or all-zero frame never opens the gate.
func (g *NoiseGate) Open(frame []float64) (bool, float64) {
	rms := common.RMS(frame)
	return rms > 0 && rms >= g.Floor(), rms
}
