package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

var errInvalidWAV = errors.New("invalid WAV file")

// DecodeWAV decodes RIFF/WAVE data with 8, 16, 24 or 32-bit integer PCM or
// 32-bit float samples and returns the first channel
func DecodeWAV(data []byte) (*Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header or fmt chunk", errInvalidWAV)
	}

	format, bits := int(d.WavAudioFormat), int(d.BitDepth)
	switch {
	case (format == wavFormatPCM || format == wavFormatExtensible) && (bits == 8 || bits == 16 || bits == 24 || bits == 32):
	case format == wavFormatFloat && bits == 32:
	default:
		return nil, fmt.Errorf("%w: WAV format %d with %d bits", ErrUnsupportedFormat, format, bits)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidWAV, err)
	}
	channels := int(d.NumChans)
	if pcm.Format != nil && pcm.Format.NumChannels > 0 {
		channels = pcm.Format.NumChannels
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", errInvalidWAV, channels)
	}

	frames := len(pcm.Data) / channels
	if frames == 0 {
		return nil, ErrNoAudioData
	}

	samples := make([]float32, frames)
	for i := range samples {
		samples[i] = normalizeSample(pcm.Data[i*channels], format, bits)
	}

	return &Buffer{Samples: samples, SampleRate: int(d.SampleRate)}, nil
}

// normalizeSample scales a raw decoded sample onto [-1, 1]
func normalizeSample(v, format, bits int) float32 {
	if format == wavFormatFloat {
		return math.Float32frombits(uint32(int32(v)))
	}
	switch bits {
	case 8:
		// 8-bit PCM is unsigned
		return (float32(v) - 128) / 128
	case 16:
		return float32(v) / 32768
	case 24:
		return float32(v) / 8388608
	default:
		return float32(float64(v) / 2147483648)
	}
}
