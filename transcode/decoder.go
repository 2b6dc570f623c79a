package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-tuner/audio"
	"github.com/RyanBlaney/sonido-tuner/logging"
)

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	FrameSize        int           `json:"frame_size"`       // Samples per frame handed to the tuner
	MaxDuration      time.Duration `json:"max_duration"`     // 0 decodes the whole file
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`      // Path to ffmpeg binary
	FFprobePath      string        `json:"ffprobe_path"`     // Path to ffprobe binary
	ProbeTimeout     time.Duration `json:"probe_timeout"`    // Timeout for ffprobe
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: audio.DefaultSampleRate,
		FrameSize:        audio.DefaultFrameSize,
		MaxDuration:      0, // No limit
		ResampleQuality:  "medium",
		FFmpegPath:       "ffmpeg",  // Assume in PATH
		FFprobePath:      "ffprobe", // Assume in PATH
		ProbeTimeout:     10 * time.Second,
	}
}

// Validate checks the configuration without touching the filesystem
func (c *DecoderConfig) Validate() error {
	if c.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", c.TargetSampleRate)
	}
	if !audio.ValidFrameSize(c.FrameSize) {
		return fmt.Errorf("%w: got %d", audio.ErrFrameSize, c.FrameSize)
	}
	switch c.ResampleQuality {
	case "", "fast", "medium", "high":
	default:
		return fmt.Errorf("unknown resample quality %q", c.ResampleQuality)
	}
	if c.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg path is empty")
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", c.MaxDuration)
	}
	return nil
}

// AudioMetadata holds detected audio properties from FFprobe
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Decoder turns audio files into streams of tuner frames using FFmpeg
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Config returns the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// OpenFile starts ffmpeg on filename and returns a stream of mono frames at
// the target sample rate. The stream must be closed. Cancelling ctx kills
// ffmpeg.
func (d *Decoder) OpenFile(ctx context.Context, filename string) (*Stream, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "OpenFile",
		"filename":  filename,
	})

	if err := d.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid decoder config: %w", err)
	}

	// Probing is optional; without ffprobe the resampler settings are simply skipped
	metadata, err := d.Probe(ctx, filename)
	if err != nil {
		logger.Debug("Probe failed, decoding without metadata", logging.Fields{"error": err.Error()})
	} else {
		logger.Debug("Audio metadata detected", logging.Fields{
			"input_sample_rate": metadata.SampleRate,
			"input_channels":    metadata.Channels,
			"input_codec":       metadata.Codec,
			"input_duration":    metadata.Duration,
		})
	}

	args := d.buildFFmpegArgs(filename, metadata)
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}

	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	frames, err := NewFrameReader(stdout, d.config.TargetSampleRate, d.config.FrameSize)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, err
	}

	return &Stream{
		frames:   frames,
		cmd:      cmd,
		stderr:   &stderr,
		Metadata: metadata,
		logger:   logger,
	}, nil
}

// Probe uses ffprobe to read the first audio stream's properties
func (d *Decoder) Probe(ctx context.Context, filename string) (*AudioMetadata, error) {
	if d.config.FFprobePath == "" {
		return nil, fmt.Errorf("ffprobe path is empty")
	}

	if d.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ProbeTimeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet", // Suppress verbose output
		"-print_format", "json", // JSON output
		"-show_streams",          // Show stream info
		"-select_streams", "a:0", // First audio stream only
		filename,
	}

	output, err := exec.CommandContext(ctx, d.config.FFprobePath, args...).Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseFFprobeOutput(output)
}

// parseFFprobeOutput extracts the first audio stream from ffprobe JSON
func parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 0
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs builds the ffmpeg arguments for decoding input to mono
// float64 PCM on stdout. metadata may be nil.
func (d *Decoder) buildFFmpegArgs(input string, metadata *AudioMetadata) []string {
	args := []string{
		"-nostdin",
		"-i", input,
		"-vn",         // Ignore video streams
		"-f", "f64le", // Output raw float64 little-endian
		"-acodec", "pcm_f64le",
		"-ac", "1", // Mono
		"-ar", strconv.Itoa(d.config.TargetSampleRate), // Target sample rate
	}

	if metadata != nil && metadata.SampleRate != d.config.TargetSampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	// Suppress ffmpeg output
	args = append(args, "-v", "error", "pipe:1")

	return args
}

// CheckAvailability runs ffmpeg -version
func (d *Decoder) CheckAvailability(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, "-version")
	cmd.Stdout = io.Discard
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	return nil
}

// Stream is a running ffmpeg decode exposed as a frame source
type Stream struct {
	frames   *FrameReader
	cmd      *exec.Cmd
	stderr   *bytes.Buffer
	logger   logging.Logger
	finished bool

	// Metadata is nil when the input could not be probed
	Metadata *AudioMetadata
}

// NextFrame returns the next frame, io.EOF at the end of the input, or the
// ffmpeg failure if decoding did not complete cleanly.
func (s *Stream) NextFrame() (audio.Frame, error) {
	if s.finished {
		return audio.Frame{}, io.EOF
	}

	frame, err := s.frames.NextFrame()
	if err == nil {
		return frame, nil
	}

	s.finished = true
	waitErr := s.cmd.Wait()
	if waitErr != nil {
		return audio.Frame{}, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s",
			waitErr, strings.TrimSpace(s.stderr.String()))
	}
	if !errors.Is(err, io.EOF) {
		return audio.Frame{}, err
	}

	s.logger.Debug("Decode finished", logging.Fields{"frames": s.frames.FramesRead()})
	return audio.Frame{}, io.EOF
}

// Close stops ffmpeg if it is still running
func (s *Stream) Close() error {
	if s.finished {
		return nil
	}
	s.finished = true
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	// the process was killed, so its exit status carries no information
	_ = s.cmd.Wait()
	return nil
}
