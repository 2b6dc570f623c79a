package tuning

import (
	"fmt"
	"slices"
	"sync"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/tuning/config"
)

// State is the lifecycle position of a Session
type State int

const (
	Idle State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NoString marks the absence of a string index
const NoString = -1

// DefaultSearchWindowCents bounds how far a pitch may be from its nearest
// target and still be attributed to that string.
const DefaultSearchWindowCents = 50

// Output is what a Session reports for one frame
type Output struct {
	Estimate       Estimate `json:"estimate"`
	DetectedString int      `json:"detected_string"` // NoString when the pitch matches no string

	// Status against the detected string, nil when none was detected
	Status *Status `json:"status,omitempty"`
	// Status against the selected string, nil when no string is selected or
	// the frame held no pitch
	SelectedStatus *Status `json:"selected_status,omitempty"`

	Tuned      []bool   `json:"tuned"` // Strings that have reached tune this session
	LastStable Estimate `json:"last_stable"`
	State      State    `json:"state"`

	SessionComplete bool `json:"session_complete"` // True only on the frame that completes the set
	JustInTune      bool `json:"just_in_tune"`     // True on the first frame of an in-tune run
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithSearchWindow overrides DefaultSearchWindowCents. A pitch is attributed
// only when it is strictly closer than cents to its nearest target.
func WithSearchWindow(cents int) SessionOption {
	return func(s *Session) {
		if cents > 0 {
			s.searchWindow = cents
		}
	}
}

// WithReleaseOnDetune makes a tuned string drop out of the tuned set when it
// is detected out of tune again. By default the set only grows until the
// session is reset or the tuning changes.
func WithReleaseOnDetune(release bool) SessionOption {
	return func(s *Session) {
		s.releaseOnDetune = release
	}
}

// WithLogger sets the session logger
func WithLogger(logger logging.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session attributes successive pitch estimates to the strings of a tuning
// and records which strings have been tuned.
//
// Every method is a critical section; Step applies a whole frame or nothing.
type Session struct {
	searchWindow    int
	releaseOnDetune bool
	logger          logging.Logger

	mu         sync.Mutex
	state      State
	tuning     Definition
	tuned      []bool
	tunedCount int
	selected   int
	lastStable Estimate

	// string attributed on the last pitched frame, NoString if none
	current int
	// target frequency of the running in-tune run, 0 outside one
	runTarget float64
}

// NewSession creates an idle session
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		searchWindow: DefaultSearchWindowCents,
		selected:     NoString,
		current:      NoString,
		logger:       logging.WithFields(logging.Fields{"component": "tuning_session"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the tuning and configuration and begins a fresh session.
// Starting a running session restarts it.
func (s *Session) Start(def Definition, cfg config.SessionConfig) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tuning = def.Clone()
	s.selected = NoString
	s.clearProgress()
	s.state = Running

	s.logger.Info("Tuning session started", logging.Fields{
		"function":        "Start",
		"tuning":          def.Name,
		"strings":         def.NumStrings(),
		"tolerance_cents": cfg.ToleranceCents,
		"sensitivity":     cfg.Sensitivity,
	})
	return nil
}

// SetTuning switches the active tuning. Progress is cleared even when the new
// tuning shares targets with the old one. A running or complete session
// continues as running.
func (s *Session) SetTuning(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tuning = def.Clone()
	s.selected = NoString
	s.clearProgress()
	if s.state != Idle {
		s.state = Running
	}

	s.logger.Info("Tuning changed", logging.Fields{
		"function": "SetTuning",
		"tuning":   def.Name,
		"strings":  def.NumStrings(),
	})
	return nil
}

// Reset clears the tuned set, the completion latch and the last stable
// estimate without changing the tuning.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearProgress()
	if s.state != Idle {
		s.state = Running
	}
}

// Stop ends the session. Calling Stop on an idle session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return
	}
	s.clearProgress()
	s.state = Idle
	s.logger.Info("Tuning session stopped", logging.Fields{"function": "Stop"})
}

// SelectString reports every pitched frame against string index as well
func (s *Session) SelectString(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= s.tuning.NumStrings() {
		return fmt.Errorf("%w: %d (tuning has %d strings)", ErrStringIndexOutOfRange, index, s.tuning.NumStrings())
	}
	s.selected = index
	return nil
}

// ClearSelection removes the selected string
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = NoString
}

// Selected returns the selected string index or NoString
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tuning returns a copy of the active tuning
func (s *Session) Tuning() Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tuning.Clone()
}

// TunedStrings returns which strings have reached tune, one flag per string
func (s *Session) TunedStrings() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tuned)
}

// Step consumes one pitch estimate. cfg is the configuration for this frame;
// out-of-range values are clamped. Step fails only when the session is idle.
func (s *Session) Step(est Estimate, cfg config.SessionConfig) (Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Idle {
		return Output{DetectedString: NoString, State: Idle}, ErrSessionNotRunning
	}
	cfg = cfg.Clamp()

	out := Output{DetectedString: NoString}

	if est.Present {
		est = PitchOf(est.Frequency)
	}
	if !est.Present {
		// nothing new this frame; keep display state and in-tune runs
		return s.finish(out), nil
	}
	out.Estimate = est

	if s.selected != NoString {
		selected := NewStatus(est.Frequency, s.tuning.Strings[s.selected], cfg.ToleranceCents)
		out.SelectedStatus = &selected
	}

	detected := s.attribute(est.Frequency)
	runTarget := 0.0
	if detected != NoString {
		target := s.tuning.Strings[detected]
		status := NewStatus(est.Frequency, target, cfg.ToleranceCents)
		out.DetectedString = detected
		out.Status = &status

		switch {
		case status.IsInTune:
			s.markTuned(detected)
			s.lastStable = est
			// a run belongs to the target pitch, so strings sharing a
			// frequency hand it over without a new edge
			out.JustInTune = s.runTarget != target.Frequency
			runTarget = target.Frequency
		case s.releaseOnDetune && s.tuned[detected]:
			s.tuned[detected] = false
			s.tunedCount--
		}
	}
	s.current = detected
	s.runTarget = runTarget

	if s.state == Running && s.tunedCount == len(s.tuning.Strings) {
		s.state = Complete
		out.SessionComplete = true
		s.logger.Info("All strings tuned", logging.Fields{
			"function": "Step",
			"tuning":   s.tuning.Name,
		})
	}

	return s.finish(out), nil
}

// attribute returns the string whose target is nearest in cents, or NoString
// when even the nearest is at or beyond the search window. Equal distances
// prefer a string that has not been tuned yet, then the string attributed on
// the previous pitched frame, then the lower index. Strings sharing a
// frequency are tuned in turn and a held note then stays where it landed.
func (s *Session) attribute(frequency float64) int {
	best := NoString
	bestDistance := 0
	for i, target := range s.tuning.Strings {
		distance := abs(tonal.CentsTo(frequency, target.Frequency))
		if best == NoString || distance < bestDistance ||
			(distance == bestDistance && s.preferOnTie(i, best)) {
			best = i
			bestDistance = distance
		}
	}
	if best == NoString || bestDistance >= s.searchWindow {
		return NoString
	}
	return best
}

func (s *Session) preferOnTie(candidate, best int) bool {
	if s.tuned[candidate] != s.tuned[best] {
		return !s.tuned[candidate]
	}
	return candidate == s.current
}

func (s *Session) markTuned(index int) {
	if s.tuned[index] {
		return
	}
	s.tuned[index] = true
	s.tunedCount++
	s.logger.Debug("String reached tune", logging.Fields{
		"function": "Step",
		"string":   index,
		"note":     s.tuning.Strings[index].Note,
		"tuned":    s.tunedCount,
	})
}

func (s *Session) finish(out Output) Output {
	out.Tuned = slices.Clone(s.tuned)
	out.LastStable = s.lastStable
	out.State = s.state
	return out
}

func (s *Session) clearProgress() {
	n := s.tuning.NumStrings()
	s.tuned = make([]bool, n)
	s.tunedCount = 0
	s.lastStable = NoPitch()
	s.current = NoString
	s.runTarget = 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
