// Package config holds the live session settings and the sources that supply
// them: a fixed value, a TOML file and a file watcher.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
)

// Tolerance and sensitivity bounds
const (
	MinToleranceCents = 0
	MaxToleranceCents = 8

	MinSensitivity = temporal.MinSensitivity
	MaxSensitivity = temporal.MaxSensitivity

	DefaultToleranceCents = 5
	DefaultSensitivity    = 0.01
)

var (
	ErrToleranceOutOfRange   = errors.New("tolerance out of range")
	ErrSensitivityOutOfRange = errors.New("sensitivity out of range")
)

// SessionConfig is the per-frame configuration read by a tuning session.
type SessionConfig struct {
	ToleranceCents int     `json:"tolerance_cents" toml:"tolerance_cents"` // In-tune band, ± cents
	Sensitivity    float64 `json:"sensitivity" toml:"sensitivity"`         // Microphone sensitivity, drives the noise floor
}

// DefaultSessionConfig returns 5 cents tolerance and 0.01 sensitivity
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ToleranceCents: DefaultToleranceCents,
		Sensitivity:    DefaultSensitivity,
	}
}

// Validate checks that both values lie in their allowed ranges
func (c SessionConfig) Validate() error {
	if c.ToleranceCents < MinToleranceCents || c.ToleranceCents > MaxToleranceCents {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrToleranceOutOfRange,
			c.ToleranceCents, MinToleranceCents, MaxToleranceCents)
	}
	if math.IsNaN(c.Sensitivity) || c.Sensitivity < MinSensitivity || c.Sensitivity > MaxSensitivity {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrSensitivityOutOfRange,
			c.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	return nil
}

// Clamp returns a copy with both values forced into range. A NaN
// sensitivity becomes the default.
func (c SessionConfig) Clamp() SessionConfig {
	c.ToleranceCents = min(max(c.ToleranceCents, MinToleranceCents), MaxToleranceCents)
	if math.IsNaN(c.Sensitivity) {
		c.Sensitivity = DefaultSensitivity
	}
	c.Sensitivity = min(max(c.Sensitivity, MinSensitivity), MaxSensitivity)
	return c
}

// Source supplies a configuration snapshot for each processed frame.
// Implementations must be safe to call from the frame loop while being
// updated elsewhere.
type Source interface {
	Snapshot() SessionConfig
}

// Static is a Source that always returns the same configuration
type Static SessionConfig

// Snapshot implements Source
func (s Static) Snapshot() SessionConfig {
	return SessionConfig(s)
}
