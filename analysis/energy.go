package analysis

import "math"

// RMS returns the root-mean-square amplitude of data[start:end]
func RMS(data []float32, start, end int) float64 {
	start, end = clampRange(len(data), start, end)
	count := end - start
	if count <= 0 {
		return 0
	}

	var sum float64
	for _, s := range data[start:end] {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(count))
}

// Variance returns the variance of the absolute amplitude of data[start:end]
// around its mean. Sung vocals move the envelope more than sustained tones.
func Variance(data []float32, start, end int) float64 {
	start, end = clampRange(len(data), start, end)
	count := end - start
	if count <= 0 {
		return 0
	}

	var mean float64
	for _, s := range data[start:end] {
		mean += math.Abs(float64(s))
	}
	mean /= float64(count)

	var variance float64
	for _, s := range data[start:end] {
		diff := math.Abs(float64(s)) - mean
		variance += diff * diff
	}
	return variance / float64(count)
}

func clampRange(n, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	return start, end
}

// windowSamples converts a window length in seconds to a sample count (at least 1)
func windowSamples(sampleRate int, seconds float64) int {
	w := int(math.Round(float64(sampleRate) * seconds))
	if w < 1 {
		return 1
	}
	return w
}

// halfHop is the 50% overlap step for a window
func halfHop(window int) int {
	if window < 2 {
		return 1
	}
	return window / 2
}
