package analysis

// Thresholds holds the empirical constants used by the detectors.
// All RMS values are on the [-1, 1] sample scale.
//
// Non-positive RMS, variance, window, debounce and gain fields fall back to
// DefaultThresholds. IntroMargin, OutroMargin and IntroFallback may be zero.
// The zero Thresholds as a whole means DefaultThresholds, so to get zero
// margins start from DefaultThresholds and clear them.
type Thresholds struct {
	IntroRMS         float64 // RMS a window needs to count as vocal onset
	VocalRMS         float64 // RMS a window needs to count as a vocal section
	OutroRMS         float64 // RMS that marks the last audible vocal window
	BeatRMS          float64 // RMS a 50ms window needs to register a beat
	VarianceFloor    float64 // minimum variance for a vocal-like window
	SustainedWindows int     // consecutive vocal-like windows before onset

	IntroMargin   float64 // seconds subtracted from detected onset
	OutroMargin   float64 // seconds added to detected vocal end
	IntroFallback float64 // intro end when no onset is found
	BeatDebounce  float64 // minimum seconds between beats
	EnergyGain    float64 // RMS multiplier for the normalized energy map
}

// DefaultThresholds returns the tuned defaults
func DefaultThresholds() Thresholds {
	return Thresholds{
		IntroRMS:         0.08,
		VocalRMS:         0.06,
		OutroRMS:         0.015,
		BeatRMS:          0.3,
		VarianceFloor:    0.002,
		SustainedWindows: 2,
		IntroMargin:      2,
		OutroMargin:      2,
		IntroFallback:    5,
		BeatDebounce:     0.3,
		EnergyGain:       20,
	}
}

// withDefaults replaces unset or invalid fields with DefaultThresholds
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t == (Thresholds{}) {
		return d
	}
	if t.IntroRMS <= 0 {
		t.IntroRMS = d.IntroRMS
	}
	if t.VocalRMS <= 0 {
		t.VocalRMS = d.VocalRMS
	}
	if t.OutroRMS <= 0 {
		t.OutroRMS = d.OutroRMS
	}
	if t.BeatRMS <= 0 {
		t.BeatRMS = d.BeatRMS
	}
	if t.VarianceFloor <= 0 {
		t.VarianceFloor = d.VarianceFloor
	}
	if t.SustainedWindows <= 0 {
		t.SustainedWindows = d.SustainedWindows
	}
	if t.IntroMargin < 0 {
		t.IntroMargin = d.IntroMargin
	}
	if t.OutroMargin < 0 {
		t.OutroMargin = d.OutroMargin
	}
	if t.IntroFallback < 0 {
		t.IntroFallback = d.IntroFallback
	}
	if t.BeatDebounce <= 0 {
		t.BeatDebounce = d.BeatDebounce
	}
	if t.EnergyGain <= 0 {
		t.EnergyGain = d.EnergyGain
	}
	return t
}
