// Package audio holds the frame type exchanged between frame sources and the
// tuner core.
package audio

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultSampleRate = 44100
	DefaultFrameSize  = 4096
	MinFrameSize      = 2048
	MaxFrameSize      = 16384
)

var (
	ErrFrameSize      = errors.New("frame size must be a power of two between 2048 and 16384")
	ErrSampleRate     = errors.New("sample rate must be positive")
	ErrNonFiniteFrame = errors.New("frame contains non-finite samples")
)

// Frame is a fixed-length block of mono samples. A frame is owned by the
// caller for the duration of one processing call.
type Frame struct {
	Samples    []float64
	SampleRate int
}

// Validate checks size, sample rate and sample finiteness.
func (f Frame) Validate() error {
	if !ValidFrameSize(len(f.Samples)) {
		return fmt.Errorf("%w: got %d", ErrFrameSize, len(f.Samples))
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrSampleRate, f.SampleRate)
	}
	for i, s := range f.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: sample %d", ErrNonFiniteFrame, i)
		}
	}
	return nil
}

// Duration returns the frame length in seconds.
func (f Frame) Duration() float64 {
	if f.SampleRate <= 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.SampleRate)
}

// ValidFrameSize reports whether n is a power of two in [MinFrameSize, MaxFrameSize].
func ValidFrameSize(n int) bool {
	return n >= MinFrameSize && n <= MaxFrameSize && n&(n-1) == 0
}
