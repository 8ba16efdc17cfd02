package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoAudioData       = errors.New("audio file contains no samples")
)

// Buffer holds the first channel of a decoded track as samples in [-1, 1]
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decode picks a decoder by file extension and returns the first channel
func Decode(name string, data []byte) (*Buffer, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		buf *Buffer
		err error
	)
	switch ext {
	case ".mp3":
		buf, err = DecodeMP3(data)
	case ".wav", ".wave":
		buf, err = DecodeWAV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return buf, nil
}

// DecodeMP3 decodes MP3 data. go-mp3 always produces 16-bit little-endian
// stereo PCM, of which the left channel is kept.
func DecodeMP3(data []byte) (*Buffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating MP3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	const bytesPerFrame = 4 // 2 channels * 2 bytes
	frames := len(pcm) / bytesPerFrame
	if frames == 0 {
		return nil, ErrNoAudioData
	}

	samples := make([]float32, frames)
	for i := range samples {
		left := int16(uint16(pcm[i*bytesPerFrame]) | uint16(pcm[i*bytesPerFrame+1])<<8)
		samples[i] = float32(left) / 32768.0
	}

	return &Buffer{Samples: samples, SampleRate: decoder.SampleRate()}, nil
}
