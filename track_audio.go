package main

import (
	"fmt"
	"sync"
	"time"

	"epk-api-go/analysis"
	"epk-api-go/audio"
	"epk-api-go/catalog"
	"epk-api-go/logcolors"
	"epk-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// audioResult is one decoded track version, with its analysis when requested
type audioResult struct {
	Buffer *audio.Buffer
	Err    error // decode or asset error; Buffer is nil when set

	Analysis    *analysis.Analysis
	AnalysisErr error
}

// inFlightAudio lets concurrent requests for the same track share one decode
type inFlightAudio struct {
	wg     sync.WaitGroup
	result audioResult
}

// trackAudio decodes and analyzes track audio on demand. Results are shared
// by requests that overlap in time, then dropped after linger.
type trackAudio struct {
	decode     func(catalog.Track, string) (*audio.Buffer, error)
	thresholds analysis.Thresholds
	linger     time.Duration
	inFlight   sync.Map
}

func newTrackAudio(loader *catalog.Loader, th analysis.Thresholds, linger time.Duration) *trackAudio {
	return &trackAudio{decode: loader.Audio, thresholds: th, linger: linger}
}

// Load decodes the track version and, if analyze is set, runs the analyzer
// over it. An analysis failure leaves Buffer usable. Either Err is set or
// Buffer is non-nil, also for waiters when the decoder panics.
func (ta *trackAudio) Load(t catalog.Track, version string, analyze bool) (result audioResult) {
	key := fmt.Sprintf("%d:%s:%v", t.ID, version, analyze)

	fresh := &inFlightAudio{}
	fresh.wg.Add(1)
	entry, loaded := ta.inFlight.LoadOrStore(key, fresh)
	req := entry.(*inFlightAudio)

	if loaded {
		log.Debugf("%s Waiting for in-flight decode of %s", logcolors.LogDecode, key)
		req.wg.Wait()
		return req.result
	}

	defer func() {
		if p := recover(); p != nil {
			log.Errorf("%s Decoder panic for %s: %v", logcolors.LogDecode, key, p)
			req.result = audioResult{Err: fmt.Errorf("%w: decoder panic: %v", catalog.ErrUndecodable, p)}
			result = req.result
		}
		req.wg.Done()
		if ta.linger > 0 {
			time.AfterFunc(ta.linger, func() { ta.inFlight.Delete(key) })
		} else {
			ta.inFlight.Delete(key)
		}
	}()

	req.result = ta.load(t, version, analyze)
	return req.result
}

func (ta *trackAudio) load(t catalog.Track, version string, analyze bool) audioResult {
	buf, err := ta.decode(t, version)
	if err != nil {
		return audioResult{Err: err}
	}
	if buf == nil {
		return audioResult{Err: fmt.Errorf("%w: no buffer for track %d (%s)", catalog.ErrUndecodable, t.ID, version)}
	}

	result := audioResult{Buffer: buf}
	if !analyze {
		return result
	}

	start := time.Now()
	a, err := analysis.Analyze(buf.Samples, buf.SampleRate, ta.thresholds)
	stats.Get().RecordAnalysis(err == nil)
	if err != nil {
		log.Warnf("%s Track %d (%s) analysis unavailable: %v", logcolors.LogAnalysis, t.ID, version, err)
		result.AnalysisErr = err
		return result
	}

	log.Infof("%s Track %d (%s): intro %.1fs, outro %.1fs, %d vocal sections in %v",
		logcolors.LogAnalysis, t.ID, version, a.IntroEnd, a.OutroStart, len(a.VocalSections), time.Since(start))
	result.Analysis = a
	return result
}
