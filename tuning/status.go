package tuning

import (
	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
)

// Estimate is the pitch seen in one frame. Present is false when the frame
// held no reliable pitch.
type Estimate struct {
	Frequency float64 `json:"frequency"`
	Present   bool    `json:"present"`
}

// NoPitch is the absent estimate
func NoPitch() Estimate {
	return Estimate{}
}

// PitchOf wraps a frequency. Values outside the detector's accepted range,
// or not finite, become NoPitch.
func PitchOf(frequency float64) Estimate {
	if !common.IsFinitePositive(frequency) ||
		frequency < tonal.DefaultMinFreq || frequency > tonal.DefaultMaxFreq {
		return NoPitch()
	}
	return Estimate{Frequency: frequency, Present: true}
}

// Status describes a detected pitch relative to one string target
type Status struct {
	Note       string  `json:"note"`        // Nearest chromatic note of the detected pitch
	Frequency  float64 `json:"frequency"`   // Detected pitch (Hz)
	TargetNote string  `json:"target_note"` // Note name of the string compared against
	Target     float64 `json:"target"`      // Target frequency (Hz)
	Cents      int     `json:"cents"`
	IsInTune   bool    `json:"is_in_tune"`
	IsSharp    bool    `json:"is_sharp"`
	IsFlat     bool    `json:"is_flat"`
}

// NewStatus compares frequency against target with the given tolerance
func NewStatus(frequency float64, target StringTarget, toleranceCents int) Status {
	cents := tonal.CentsTo(frequency, target.Frequency)
	class := tonal.Classify(cents, toleranceCents)
	return Status{
		Note:       tonal.NoteFromFrequency(frequency),
		Frequency:  frequency,
		TargetNote: target.Note,
		Target:     target.Frequency,
		Cents:      cents,
		IsInTune:   class.InTune,
		IsSharp:    class.Sharp,
		IsFlat:     class.Flat,
	}
}
