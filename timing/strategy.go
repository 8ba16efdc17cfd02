package timing

import (
	"epk-api-go/analysis"
	"epk-api-go/logcolors"
	"epk-api-go/lyrics"

	log "github.com/sirupsen/logrus"
)

// Strategy names reported alongside timed lyrics
const (
	StrategyExplicit = "explicit"
	StrategyAudio    = "audio"
	StrategyEven     = "even"
	StrategyNone     = "none"
)

// Input is everything a strategy may use to time a track's lyrics
type Input struct {
	Lines    []lyrics.Line
	Duration float64            // track duration in seconds, 0 if unknown
	Analysis *analysis.Analysis // nil when analysis is unavailable
}

// Strategy produces a full timing or reports that it can't
type Strategy interface {
	Name() string
	Apply(in Input) ([]lyrics.Line, bool)
}

// ExplicitStrategy keeps author-provided timestamps
type ExplicitStrategy struct{}

func (ExplicitStrategy) Name() string { return StrategyExplicit }

func (ExplicitStrategy) Apply(in Input) ([]lyrics.Line, bool) {
	if !lyrics.HasAnyTimestamp(in.Lines) {
		return nil, false
	}
	return in.Lines, true
}

// AudioStrategy maps lyrics onto the audio analysis
type AudioStrategy struct {
	Options MapOptions
}

func (AudioStrategy) Name() string { return StrategyAudio }

func (s AudioStrategy) Apply(in Input) ([]lyrics.Line, bool) {
	if in.Analysis == nil || len(in.Lines) == 0 {
		return nil, false
	}
	return MapToAudio(in.Lines, in.Analysis, s.Options), true
}

// EvenStrategy spreads lines evenly over the duration
type EvenStrategy struct{}

func (EvenStrategy) Name() string { return StrategyEven }

func (EvenStrategy) Apply(in Input) ([]lyrics.Line, bool) {
	if len(in.Lines) == 0 || in.Duration <= 0 {
		return nil, false
	}
	return Distribute(in.Lines, in.Duration), true
}

// DefaultChain is explicit timestamps, then audio mapping, then even spacing
func DefaultChain(opts MapOptions) []Strategy {
	return []Strategy{
		ExplicitStrategy{},
		AudioStrategy{Options: opts},
		EvenStrategy{},
	}
}

// Resolve runs the strategies in order and returns the first full timing
// with the name of the strategy that produced it. When none applies the
// lines come back untouched with StrategyNone.
func Resolve(in Input, chain []Strategy) ([]lyrics.Line, string) {
	for _, s := range chain {
		if timed, ok := s.Apply(in); ok {
			log.Debugf("%s %d lines timed by %s strategy", logcolors.LogTiming, len(timed), s.Name())
			return timed, s.Name()
		}
	}
	if in.Lines == nil {
		return []lyrics.Line{}, StrategyNone
	}
	return in.Lines, StrategyNone
}
