package tuning

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/audio"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuning/config"
)

// FrameSource supplies mono frames one at a time. NextFrame returns io.EOF
// when the stream ends.
type FrameSource interface {
	NextFrame() (audio.Frame, error)
}

// Tuner runs frames through the pitch detector and into a session
type Tuner struct {
	detector *tonal.PitchDetector
	session  *Session
	logger   logging.Logger
}

// NewTuner pairs a detector with a session. A nil detector uses the defaults.
func NewTuner(detector *tonal.PitchDetector, session *Session) *Tuner {
	if detector == nil {
		detector = tonal.NewPitchDetector()
	}
	return &Tuner{
		detector: detector,
		session:  session,
		logger:   logging.WithFields(logging.Fields{"component": "tuner"}),
	}
}

// Session returns the session the tuner steps
func (t *Tuner) Session() *Session {
	return t.session
}

// Process estimates the pitch of one frame and steps the session with it.
// A malformed frame counts as a frame without pitch.
func (t *Tuner) Process(frame audio.Frame, cfg config.SessionConfig) (Output, error) {
	est := NoPitch()
	if err := frame.Validate(); err == nil {
		if f, ok := t.detector.Estimate(frame.Samples, frame.SampleRate, cfg.Clamp().Sensitivity); ok {
			est = PitchOf(f)
		}
	} else {
		t.logger.Debug("Frame rejected", logging.Fields{
			"function": "Process",
			"error":    err.Error(),
		})
	}
	return t.session.Step(est, cfg)
}

// Run pulls frames from src until it is exhausted or ctx is done, reading a
// fresh configuration from cfgSrc for every frame and passing each output to
// sink. End of stream is not an error, and neither is the session being
// stopped while running; Run then returns before reading another frame.
func (t *Tuner) Run(ctx context.Context, src FrameSource, cfgSrc config.Source, sink func(Output)) error {
	logger := t.logger.WithFields(logging.Fields{"function": "Run"})

	if t.session.State() == Idle {
		return ErrSessionNotRunning
	}

	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.session.State() == Idle {
			logger.Debug("Session stopped", logging.Fields{"frames": frames})
			return nil
		}

		frame, err := src.NextFrame()
		if errors.Is(err, io.EOF) {
			logger.Debug("Frame source exhausted", logging.Fields{"frames": frames})
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", frames, err)
		}

		out, err := t.Process(frame, cfgSrc.Snapshot())
		if errors.Is(err, ErrSessionNotRunning) {
			return nil
		}
		if err != nil {
			return err
		}
		frames++

		if sink != nil {
			sink(out)
		}
	}
}
