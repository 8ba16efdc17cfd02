package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// DefaultFFTSize matches the visualizer's analyser node
	DefaultFFTSize = 512

	minFFTSize = 32
	maxFFTSize = 32768

	// Decibel range mapped onto 0..255, same as a browser AnalyserNode
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Spectrum returns fftSize/2 byte magnitudes for a Blackman-windowed frame
// centred on `at` seconds. Samples outside the buffer are treated as silence.
func Spectrum(samples []float32, sampleRate int, at float64, fftSize int) ([]uint8, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if fftSize == 0 {
		fftSize = DefaultFFTSize
	}
	if fftSize < minFFTSize || fftSize > maxFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two between %d and %d, got %d", minFFTSize, maxFFTSize, fftSize)
	}

	center := int(at * float64(sampleRate))
	start := center - fftSize/2

	frame := make([]float64, fftSize)
	for k := range frame {
		idx := start + k
		if idx < 0 || idx >= len(samples) {
			continue
		}
		frame[k] = float64(samples[idx]) * blackman(k, fftSize)
	}

	fft := fourier.NewFFT(fftSize)
	coeffs := fft.Coefficients(nil, frame)

	bins := make([]uint8, fftSize/2)
	for k := range bins {
		mag := math.Hypot(real(coeffs[k]), imag(coeffs[k])) / float64(fftSize)
		bins[k] = toByte(mag)
	}
	return bins, nil
}

func blackman(k, n int) float64 {
	x := 2 * math.Pi * float64(k) / float64(n)
	return 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
}

func toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	default:
		return uint8(scaled)
	}
}
