package tonal

import (
	"math"
	"sync"

	"github.com/RyanBlaney/sonido-tuner/algorithms/common"
	"github.com/RyanBlaney/sonido-tuner/algorithms/filters"
	"github.com/RyanBlaney/sonido-tuner/algorithms/stats"
	"github.com/RyanBlaney/sonido-tuner/algorithms/temporal"
	"github.com/RyanBlaney/sonido-tuner/algorithms/windowing"
)

// Frequency and frame limits used by the default detector.
const (
	DefaultMinFreq      = 40.0
	DefaultMaxFreq      = 2000.0
	DefaultMinClarity   = 0.3
	DefaultPeakRatio    = 0.9
	DefaultMinFrameSize = 2048
	DefaultMaxFrameSize = 16384

	// smallest lag ever searched, whatever the sample rate
	minSearchLag = 2
)

// PitchDetectionParams contains parameters for pitch detection
type PitchDetectionParams struct {
	// Frequency range constraints
	MinFreq float64 `json:"min_freq"` // Minimum accepted frequency (Hz)
	MaxFreq float64 `json:"max_freq"` // Maximum accepted frequency (Hz)

	// Peak r(τ*) must reach this fraction of r(0)
	MinClarity float64 `json:"min_clarity"`

	// The earliest local peak reaching this fraction of the largest one is
	// taken as the period, so integer-lag sampling cannot favour a multiple
	PeakRatio float64 `json:"peak_ratio"`

	// Frame length constraints (inclusive, power of two)
	MinFrameSize int `json:"min_frame_size"`
	MaxFrameSize int `json:"max_frame_size"`
}

// DefaultPitchDetectionParams returns the parameters tuned for plucked strings
func DefaultPitchDetectionParams() PitchDetectionParams {
	return PitchDetectionParams{
		MinFreq:      DefaultMinFreq,
		MaxFreq:      DefaultMaxFreq,
		MinClarity:   DefaultMinClarity,
		PeakRatio:    DefaultPeakRatio,
		MinFrameSize: DefaultMinFrameSize,
		MaxFrameSize: DefaultMaxFrameSize,
	}
}

// PitchDetectionResult describes the outcome of analysing one frame
type PitchDetectionResult struct {
	Pitch   float64 `json:"pitch"`   // Estimated fundamental (Hz), 0 when unvoiced
	Voiced  bool    `json:"voiced"`  // A reliable pitch was found
	Clarity float64 `json:"clarity"` // r(τ*) / r(0)
	Period  float64 `json:"period"`  // Refined period in samples
	RMS     float64 `json:"rms"`     // Frame energy before windowing
}

// PitchDetector estimates the fundamental frequency of a monophonic frame
// using a Hann-windowed time-domain autocorrelation.
//
// Steps:
//  1. RMS noise gate whose floor follows the sensitivity setting
//  2. Frame mean removal and Hann windowing
//  3. Unnormalized autocorrelation over the lags that map into [MinFreq, MaxFreq]
//  4. Largest peak after the zero-lag lobe (which ends at the first lag with
//     r <= 0), checked against MinClarity·r(0) and required to be a local
//     maximum; the earliest peak within PeakRatio of it is the period candidate
//  5. Window-bias compensation and parabolic refinement of the peak lag
//
// References:
// - Rabiner, L.R. (1977). "On the use of autocorrelation analysis for pitch detection"
// - Boersma, P. (1993). "Accurate short-term analysis of the fundamental frequency"
//
// A PitchDetector is safe for concurrent use. Window coefficients and the
// window's own autocorrelation are cached per frame size.
type PitchDetector struct {
	params PitchDetectionParams

	mu         sync.Mutex
	windows    map[int]*windowing.Hann
	windowBias map[biasKey][]float64
}

type biasKey struct {
	size   int
	maxLag int
}

// NewPitchDetector creates a new pitch detector with default parameters
func NewPitchDetector() *PitchDetector {
	return NewPitchDetectorWithParams(DefaultPitchDetectionParams())
}

// NewPitchDetectorWithParams creates a pitch detector with custom parameters.
// Zero-valued fields fall back to their defaults.
func NewPitchDetectorWithParams(params PitchDetectionParams) *PitchDetector {
	defaults := DefaultPitchDetectionParams()
	if params.MinFreq <= 0 {
		params.MinFreq = defaults.MinFreq
	}
	if params.MaxFreq <= params.MinFreq {
		params.MaxFreq = defaults.MaxFreq
	}
	if params.MinClarity <= 0 {
		params.MinClarity = defaults.MinClarity
	}
	if params.PeakRatio <= 0 || params.PeakRatio > 1 {
		params.PeakRatio = defaults.PeakRatio
	}
	if params.MinFrameSize <= 0 {
		params.MinFrameSize = defaults.MinFrameSize
	}
	if params.MaxFrameSize < params.MinFrameSize {
		params.MaxFrameSize = defaults.MaxFrameSize
	}

	return &PitchDetector{
		params:     params,
		windows:    make(map[int]*windowing.Hann),
		windowBias: make(map[biasKey][]float64),
	}
}

// GetParameters returns the detector parameters
func (pd *PitchDetector) GetParameters() PitchDetectionParams {
	return pd.params
}

// Estimate returns the fundamental frequency of frame, or false when the frame
// holds no reliable pitch. It never fails: malformed frames, silence and
// out-of-range results all report false.
func (pd *PitchDetector) Estimate(frame []float64, sampleRate int, sensitivity float64) (float64, bool) {
	result := pd.Detect(frame, sampleRate, sensitivity)
	return result.Pitch, result.Voiced
}

// Detect runs the full analysis and returns the intermediate measurements
// alongside the pitch.
func (pd *PitchDetector) Detect(frame []float64, sampleRate int, sensitivity float64) PitchDetectionResult {
	var result PitchDetectionResult

	n := len(frame)
	if !pd.validFrame(frame, sampleRate) {
		return result
	}

	open, rms := temporal.NewNoiseGate(sensitivity).Open(frame)
	result.RMS = rms
	if !open {
		return result
	}

	minLag, maxLag := pd.lagRange(n, sampleRate)
	if maxLag-minLag < 2 {
		return result
	}

	hann, bias := pd.analysisWindow(n, maxLag)

	signal := filters.RemoveMean(frame)
	if err := hann.ApplyInPlace(signal); err != nil {
		return result
	}

	r, err := stats.NewAutoCorrelation(maxLag).Compute(signal)
	if err != nil || r[0] <= 0 {
		return result
	}

	// Skip the lobe around lag zero. Noise puts ripples on its slope, so the
	// lobe ends where r first reaches zero, not at its first local minimum.
	start := 1
	for start < maxLag && r[start] > 0 {
		start++
	}
	start = max(start, minLag)

	best := -1
	bestValue := 0.0
	for lag := start; lag < maxLag; lag++ {
		if r[lag] > bestValue {
			best = lag
			bestValue = r[lag]
		}
	}
	if best < 0 {
		return result
	}

	result.Clarity = bestValue / r[0]
	if result.Clarity < pd.params.MinClarity {
		return result
	}
	// A maximum on the edge of the searched range is the lobe or a period
	// beyond MinFreq, never a fundamental.
	if r[best] <= r[best-1] || r[best] < r[best+1] {
		return result
	}

	threshold := pd.params.PeakRatio * bestValue
	for lag := start; lag < best; lag++ {
		if r[lag] >= threshold && r[lag] > r[lag-1] && r[lag] >= r[lag+1] {
			best = lag
			break
		}
	}

	compensated := stats.CompensateBias(r, bias)
	if len(compensated) <= maxLag {
		return result
	}
	for best+1 < maxLag && compensated[best+1] > compensated[best] {
		best++
	}
	for best-1 > start && compensated[best-1] > compensated[best] {
		best--
	}

	period := float64(best) + common.ParabolicOffset(compensated, best)
	pitch := float64(sampleRate) / period
	if !common.IsFinitePositive(pitch) {
		return result
	}
	if pitch < pd.params.MinFreq || pitch > pd.params.MaxFreq {
		return result
	}

	result.Period = period
	result.Pitch = pitch
	result.Voiced = true
	return result
}

func (pd *PitchDetector) validFrame(frame []float64, sampleRate int) bool {
	n := len(frame)
	if n < pd.params.MinFrameSize || n > pd.params.MaxFrameSize || !common.IsPowerOfTwo(n) {
		return false
	}
	if sampleRate <= 0 {
		return false
	}
	return common.AllFinite(frame)
}

// lagRange returns the searched lags [minLag, maxLag). r is computed up to and
// including maxLag so the refinement can look one lag past the last candidate.
func (pd *PitchDetector) lagRange(frameSize, sampleRate int) (int, int) {
	sr := float64(sampleRate)
	minLag := max(minSearchLag, int(math.Floor(sr/pd.params.MaxFreq)))
	maxLag := min(frameSize/2, int(math.Ceil(sr/pd.params.MinFreq))+2)
	return minLag, maxLag
}

// analysisWindow returns the cached Hann window for frameSize and the
// window's autocorrelation up to maxLag.
func (pd *PitchDetector) analysisWindow(frameSize, maxLag int) (*windowing.Hann, []float64) {
	pd.mu.Lock()
	defer pd.mu.Unlock()

	hann, ok := pd.windows[frameSize]
	if !ok {
		hann = windowing.NewHann(frameSize)
		pd.windows[frameSize] = hann
	}

	key := biasKey{size: frameSize, maxLag: maxLag}
	bias, ok := pd.windowBias[key]
	if !ok {
		var err error
		bias, err = stats.NewAutoCorrelation(maxLag).Compute(hann.Coefficients())
		if err != nil {
			bias = nil
		}
		pd.windowBias[key] = bias
	}

	return hann, bias
}

var defaultDetector = NewPitchDetector()

// EstimatePitch runs a shared default detector over frame.
func EstimatePitch(frame []float64, sampleRate int, sensitivity float64) (float64, bool) {
	return defaultDetector.Estimate(frame, sampleRate, sensitivity)
}
