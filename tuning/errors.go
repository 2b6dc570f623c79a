package tuning

import "errors"

// Configuration errors are returned before a session processes any frame.
var (
	ErrEmptyTuning         = errors.New("tuning has no strings")
	ErrInvalidTarget       = errors.New("string target frequency must be finite and positive")
	ErrStringCountMismatch = errors.New("notes and frequencies differ in length")
	ErrUnknownTuning       = errors.New("unknown tuning")
	ErrDuplicateTuning     = errors.New("tuning already defined")

	ErrSessionNotRunning     = errors.New("session not running")
	ErrStringIndexOutOfRange = errors.New("string index out of range")
)
