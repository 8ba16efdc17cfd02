package analysis

import "math"

// DetectIntroEnd estimates when sustained vocal energy first appears.
// Slides a 1s window with 50% overlap; onset needs SustainedWindows
// consecutive vocal-like windows. Returns the onset minus IntroMargin,
// or IntroFallback when the buffer never gets there.
func DetectIntroEnd(data []float32, sampleRate int, th Thresholds) float64 {
	window := windowSamples(sampleRate, 1)
	hop := halfHop(window)
	consecutive := 0

	for i := 0; i < len(data)-window; i += hop {
		rms := RMS(data, i, i+window)
		variance := Variance(data, i, i+window)

		if rms > th.IntroRMS && variance > th.VarianceFloor {
			consecutive++
			if consecutive >= th.SustainedWindows {
				onset := float64(i) / float64(sampleRate)
				return math.Max(0, onset-th.IntroMargin)
			}
		} else {
			consecutive = 0
		}
	}

	return th.IntroFallback
}

// DetectOutroStart scans backward in 0.5s windows for the last audible
// vocal window and returns its time plus OutroMargin, capped at duration.
// Returns duration when nothing is found.
func DetectOutroStart(data []float32, sampleRate int, duration float64, th Thresholds) float64 {
	window := windowSamples(sampleRate, 0.5)

	for i := len(data) - window; i > 0; i -= window {
		if RMS(data, i, i+window) > th.OutroRMS {
			return math.Min(duration, float64(i)/float64(sampleRate)+th.OutroMargin)
		}
	}

	return duration
}

// DetectVocalSections returns the intervals where 2s windows (50% overlap)
// look vocal. Adjacent vocal windows merge into one interval.
func DetectVocalSections(data []float32, sampleRate int, th Thresholds) []VocalSection {
	window := windowSamples(sampleRate, 2)
	hop := halfHop(window)
	sections := []VocalSection{}

	inVocal := false
	var start float64

	for i := 0; i < len(data); i += hop {
		end := min(i+window, len(data))
		isVocal := RMS(data, i, end) > th.VocalRMS && Variance(data, i, end) > th.VarianceFloor
		t := float64(i) / float64(sampleRate)

		switch {
		case isVocal && !inVocal:
			start = t
			inVocal = true
		case !isVocal && inVocal:
			sections = append(sections, VocalSection{Start: start, End: t})
			inVocal = false
		}
	}

	if inVocal {
		sections = append(sections, VocalSection{
			Start: start,
			End:   float64(len(data)) / float64(sampleRate),
		})
	}

	return sections
}

// EnergyMap returns normalized loudness at 1s resolution
func EnergyMap(data []float32, sampleRate int, th Thresholds) []EnergyPoint {
	window := windowSamples(sampleRate, 1)
	points := make([]EnergyPoint, 0, len(data)/window+1)

	for i := 0; i < len(data); i += window {
		end := min(i+window, len(data))
		points = append(points, EnergyPoint{
			Time:   float64(i) / float64(sampleRate),
			Energy: math.Min(RMS(data, i, end)*th.EnergyGain, 1),
		})
	}

	return points
}

// DetectBeats registers a beat wherever a 50ms window (50% overlap) is loud
// enough and at least BeatDebounce seconds have passed since the last beat
func DetectBeats(data []float32, sampleRate int, th Thresholds) []float64 {
	window := windowSamples(sampleRate, 0.05)
	hop := halfHop(window)
	beats := []float64{}
	lastBeat := -1.0

	for i := 0; i < len(data)-window; i += hop {
		t := float64(i) / float64(sampleRate)
		if RMS(data, i, i+window) > th.BeatRMS && t-lastBeat > th.BeatDebounce {
			beats = append(beats, t)
			lastBeat = t
		}
	}

	return beats
}
