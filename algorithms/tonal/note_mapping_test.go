package tonal

import (
	"math"
	"testing"
)

func TestNoteFromFrequency(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{440, "A"},
		{880, "A"},
		{220, "A"},
		{261.63, "C"},
		{82.41, "E"},
		{329.63, "E"},
		{77.78, "D#"},
		{207.65, "G#"},
		{27.5, "A"},
		{450, "A"},   // +39 cents still rounds to A
		{455, "A#"},  // +58 cents rounds up
		{0, ""},
		{-440, ""},
		{math.NaN(), ""},
		{math.Inf(1), ""},
	}
	for _, tt := range tests {
		if got := NoteFromFrequency(tt.freq); got != tt.want {
			t.Errorf("NoteFromFrequency(%v) = %q, want %q", tt.freq, got, tt.want)
		}
	}
}

func TestMIDINote(t *testing.T) {
	if m, ok := MIDINote(440); !ok || m != 69 {
		t.Errorf("MIDINote(440) = %d, %v; want 69, true", m, ok)
	}
	if m, ok := MIDINote(261.63); !ok || m != 60 {
		t.Errorf("MIDINote(261.63) = %d, %v; want 60, true", m, ok)
	}
	// below MIDI 12 the pitch class must stay non-negative
	if m, ok := MIDINote(8.18); !ok || m != 0 {
		t.Errorf("MIDINote(8.18) = %d, %v; want 0, true", m, ok)
	}
	if got := NoteFromFrequency(8.18); got != "C" {
		t.Errorf("NoteFromFrequency(8.18) = %q, want C", got)
	}
	if _, ok := MIDINote(0); ok {
		t.Error("MIDINote(0) reported ok")
	}
}

func TestCentsTo(t *testing.T) {
	tests := []struct {
		f, target float64
		want      int
	}{
		{440, 440, 0},
		{880, 440, 1200},
		{220, 440, -1200},
		{466.16, 440, 100},
		{440 * math.Pow(2, 49.0/1200), 440, 49},
		{440 * math.Pow(2, -49.0/1200), 440, -49},
		{0, 440, 0},
		{440, 0, 0},
		{-1, 440, 0},
		{math.NaN(), 440, 0},
	}
	for _, tt := range tests {
		if got := CentsTo(tt.f, tt.target); got != tt.want {
			t.Errorf("CentsTo(%v, %v) = %d, want %d", tt.f, tt.target, got, tt.want)
		}
	}
}

func TestCentsToAntisymmetric(t *testing.T) {
	freqs := []float64{41.2, 82.41, 110, 146.83, 196, 246.94, 329.63, 440, 441.27, 1000, 1999.9}
	for _, f := range freqs {
		if got := CentsTo(f, f); got != 0 {
			t.Errorf("CentsTo(%v, %v) = %d, want 0", f, f, got)
		}
		for _, g := range freqs {
			if a, b := CentsTo(f, g), CentsTo(g, f); a != -b {
				t.Errorf("CentsTo(%v, %v) = %d but CentsTo(%v, %v) = %d", f, g, a, g, f, b)
			}
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		cents, tolerance int
		want             Classification
	}{
		{0, 5, Classification{InTune: true}},
		{5, 5, Classification{InTune: true}},
		{-5, 5, Classification{InTune: true}},
		{6, 5, Classification{Sharp: true}},
		{-6, 5, Classification{Flat: true}},
		{0, 0, Classification{InTune: true}},
		{1, 0, Classification{Sharp: true}},
		{-8, 8, Classification{InTune: true}},
		{-9, 8, Classification{Flat: true}},
	}
	for _, tt := range tests {
		if got := Classify(tt.cents, tt.tolerance); got != tt.want {
			t.Errorf("Classify(%d, %d) = %+v, want %+v", tt.cents, tt.tolerance, got, tt.want)
		}
	}
}
