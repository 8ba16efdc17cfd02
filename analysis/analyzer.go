package analysis

import (
	"errors"
	"fmt"

	"epk-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

var (
	ErrAnalysisFailed = errors.New("audio analysis failed")
)

// VocalSection is an interval (seconds) judged vocal-active
type VocalSection struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// EnergyPoint is one sample of the energy map
type EnergyPoint struct {
	Time   float64 `json:"time"`
	Energy float64 `json:"energy"`
}

// Analysis is the structural summary of a track
type Analysis struct {
	Duration      float64        `json:"duration"`
	IntroEnd      float64        `json:"introEnd"`
	OutroStart    float64        `json:"outroStart"`
	VocalSections []VocalSection `json:"vocalSections"`
	EnergyMap     []EnergyPoint  `json:"energyMap"`
	BeatPattern   []float64      `json:"beatPattern"`
}

// Analyze computes the structural summary of a mono sample buffer.
// Any failure (bad input or a panic inside a detector) yields a nil analysis
// and an error wrapping ErrAnalysisFailed; partial results are never returned.
func Analyze(samples []float32, sampleRate int, th Thresholds) (result *Analysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrAnalysisFailed, r)
		}
	}()

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: invalid sample rate %d", ErrAnalysisFailed, sampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample buffer", ErrAnalysisFailed)
	}

	th = th.withDefaults()
	duration := float64(len(samples)) / float64(sampleRate)

	result = &Analysis{
		Duration:      duration,
		IntroEnd:      DetectIntroEnd(samples, sampleRate, th),
		OutroStart:    DetectOutroStart(samples, sampleRate, duration, th),
		VocalSections: DetectVocalSections(samples, sampleRate, th),
		EnergyMap:     EnergyMap(samples, sampleRate, th),
		BeatPattern:   DetectBeats(samples, sampleRate, th),
	}

	log.Debugf("%s duration=%.1fs intro=%.1fs outro=%.1fs vocal_sections=%d beats=%d",
		logcolors.LogAnalysis, duration, result.IntroEnd, result.OutroStart,
		len(result.VocalSections), len(result.BeatPattern))

	return result, nil
}

// HighEnergyAfter returns the earliest energy-map time strictly after t whose
// energy exceeds threshold
func (a *Analysis) HighEnergyAfter(t, threshold float64) (float64, bool) {
	for _, p := range a.EnergyMap {
		if p.Energy > threshold && p.Time > t {
			return p.Time, true
		}
	}
	return 0, false
}
