package transcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/RyanBlaney/sonido-tuner/audio"
)

const bytesPerSample = 8

// FrameReader slices a stream of mono float64 little-endian PCM into
// fixed-size frames. A trailing partial frame is dropped.
type FrameReader struct {
	r          io.Reader
	sampleRate int
	frameSize  int
	buf        []byte
	frames     int
}

// NewFrameReader creates a reader producing frames of frameSize samples
func NewFrameReader(r io.Reader, sampleRate, frameSize int) (*FrameReader, error) {
	if !audio.ValidFrameSize(frameSize) {
		return nil, fmt.Errorf("%w: got %d", audio.ErrFrameSize, frameSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", audio.ErrSampleRate, sampleRate)
	}
	return &FrameReader{
		r:          r,
		sampleRate: sampleRate,
		frameSize:  frameSize,
		buf:        make([]byte, frameSize*bytesPerSample),
	}, nil
}

// NextFrame returns the next full frame, or io.EOF once fewer than frameSize
// samples remain.
func (fr *FrameReader) NextFrame() (audio.Frame, error) {
	_, err := io.ReadFull(fr.r, fr.buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return audio.Frame{}, io.EOF
	}
	if err != nil {
		return audio.Frame{}, fmt.Errorf("read pcm: %w", err)
	}

	fr.frames++
	return audio.Frame{
		Samples:    bytesToFloat64(fr.buf),
		SampleRate: fr.sampleRate,
	}, nil
}

// FramesRead returns the number of full frames returned so far
func (fr *FrameReader) FramesRead() int {
	return fr.frames
}

// bytesToFloat64 decodes little-endian float64 samples. Trailing bytes that
// do not form a whole sample are ignored.
func bytesToFloat64(data []byte) []float64 {
	if len(data)%bytesPerSample != 0 {
		data = data[:len(data)-(len(data)%bytesPerSample)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / bytesPerSample
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*bytesPerSample : i*bytesPerSample+bytesPerSample])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
