package tonal

import (
	"math"
)

// Equal-temperament reference
const (
	ReferenceA4   = 440.0
	ReferenceMIDI = 69

	CentsPerOctave     = 1200
	SemitonesPerOctave = 12
)

// PitchClassNames lists the chromatic pitch classes starting at C
var PitchClassNames = [SemitonesPerOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// MIDINote returns the nearest MIDI note number for frequency f.
// It reports false when f is not a finite positive frequency.
func MIDINote(f float64) (int, bool) {
	if !validFrequency(f) {
		return 0, false
	}
	return int(math.Round(SemitonesPerOctave*math.Log2(f/ReferenceA4))) + ReferenceMIDI, true
}

// NoteFromFrequency returns the name of the nearest chromatic pitch class
// ("A" for both 440 Hz and 880 Hz). The octave is not tracked. An invalid
// frequency yields "".
func NoteFromFrequency(f float64) string {
	midi, ok := MIDINote(f)
	if !ok {
		return ""
	}
	class := ((midi-12)%SemitonesPerOctave + SemitonesPerOctave) % SemitonesPerOctave
	return PitchClassNames[class]
}

// CentsTo returns the signed deviation of f from target in whole cents,
// round(1200·log2(f/target)). Positive is sharp, negative is flat.
// Rounding is half away from zero, so CentsTo(f, t) == -CentsTo(t, f).
// Invalid input yields 0.
func CentsTo(f, target float64) int {
	if !validFrequency(f) || !validFrequency(target) {
		return 0
	}
	return int(math.Round(CentsPerOctave * math.Log2(f/target)))
}

// Classification places a cents deviation relative to a tolerance band
type Classification struct {
	InTune bool `json:"in_tune"`
	Sharp  bool `json:"sharp"`
	Flat   bool `json:"flat"`
}

// Classify reports whether cents lies within ±tolerance, above it, or below it.
// For a non-negative tolerance exactly one flag is set.
func Classify(cents, tolerance int) Classification {
	return Classification{
		InTune: cents >= -tolerance && cents <= tolerance,
		Sharp:  cents > tolerance,
		Flat:   cents < -tolerance,
	}
}

func validFrequency(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
