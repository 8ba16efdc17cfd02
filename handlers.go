package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"epk-api-go/analysis"
	"epk-api-go/audio"
	"epk-api-go/catalog"
	"epk-api-go/logcolors"
	"epk-api-go/lyrics"
	"epk-api-go/stats"
	"epk-api-go/timing"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const noLyricsMessage = "No lyrics available"

// floatParam reads a non-negative finite float query parameter. ok is false
// when the parameter is absent.
func floatParam(r *http.Request, name string) (value float64, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false, fmt.Errorf("%s must be a non-negative number", name)
	}
	return value, true, nil
}

// versionParam reads the audio version, defaulting to the chorus preview
func versionParam(r *http.Request) (string, error) {
	switch v := strings.ToLower(r.URL.Query().Get("version")); v {
	case "", catalog.VersionChorus:
		return catalog.VersionChorus, nil
	case catalog.VersionFull:
		return catalog.VersionFull, nil
	default:
		return "", fmt.Errorf("version must be %q or %q", catalog.VersionChorus, catalog.VersionFull)
	}
}

// analyzeParam reads the analyze flag, defaulting to the audio timing feature flag
func (s *server) analyzeParam(r *http.Request) (bool, error) {
	raw := r.URL.Query().Get("analyze")
	if raw == "" {
		return s.audioTiming, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("analyze must be a boolean")
	}
	return v, nil
}

// assetErrorStatus maps loader errors onto HTTP status codes
func assetErrorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrTrackNotFound), errors.Is(err, catalog.ErrAssetNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidAsset):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrAssetTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, catalog.ErrUndecodable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) lookupTrack(w http.ResponseWriter, r *http.Request) (catalog.Track, bool) {
	track, err := s.catalog.Lookup(mux.Vars(r)["id"])
	if err != nil {
		Respond(w, r).Error(http.StatusNotFound, err.Error())
		return catalog.Track{}, false
	}
	return track, true
}

// trackLyrics loads a track's lyrics. A missing lyrics file is not an error:
// the track simply has no lines.
func (s *server) trackLyrics(t catalog.Track) ([]lyrics.Line, error) {
	lines, err := s.loader.Lyrics(t)
	if errors.Is(err, catalog.ErrAssetNotFound) {
		log.Infof("%s Track %d has no lyrics: %v", logcolors.LogLyrics, t.ID, err)
		return []lyrics.Line{}, nil
	}
	return lines, err
}

// timedLines runs the timing strategy chain for a track. The analysis is
// only computed when it could change the outcome.
func (s *server) timedLines(r *http.Request, t catalog.Track) (lines []lyrics.Line, strategy, analysisStatus string, duration float64, status int, err error) {
	version, err := versionParam(r)
	if err != nil {
		return nil, "", "", 0, http.StatusBadRequest, err
	}
	duration, hasDuration, err := floatParam(r, "duration")
	if err != nil {
		return nil, "", "", 0, http.StatusBadRequest, err
	}
	analyze, err := s.analyzeParam(r)
	if err != nil {
		return nil, "", "", 0, http.StatusBadRequest, err
	}

	parsed, err := s.trackLyrics(t)
	if err != nil {
		return nil, "", "", 0, assetErrorStatus(err), err
	}

	in := timing.Input{Lines: parsed, Duration: duration}
	analysisStatus = analysisSkipped

	needAudio := len(parsed) > 0 && !lyrics.HasAnyTimestamp(parsed) && (analyze || !hasDuration)
	if needAudio {
		res := s.audio.Load(t, version, analyze)
		switch {
		case res.Err != nil:
			// Audio is optional here; fall through to even spacing or nothing
			log.Warnf("%s Track %d audio unavailable for timing: %v", logcolors.LogTiming, t.ID, res.Err)
			if analyze {
				analysisStatus = analysisUnavailable
			}
		default:
			if !hasDuration {
				in.Duration = res.Buffer.Duration()
			}
			if analyze {
				if res.Analysis != nil {
					in.Analysis = res.Analysis
					analysisStatus = analysisOK
				} else {
					analysisStatus = analysisUnavailable
				}
			}
		}
	}

	lines, strategy = timing.Resolve(in, timing.DefaultChain(s.mapOptions))
	stats.Get().RecordStrategy(strategy)
	return lines, strategy, analysisStatus, in.Duration, http.StatusOK, nil
}

func (s *server) listTracks(w http.ResponseWriter, r *http.Request) {
	tracks := s.catalog.Tracks()
	Respond(w, r).JSON(TrackListResponse{Count: len(tracks), Tracks: tracks})
}

func (s *server) getLyrics(w http.ResponseWriter, r *http.Request) {
	track, ok := s.lookupTrack(w, r)
	if !ok {
		return
	}

	lines, err := s.trackLyrics(track)
	if err != nil {
		log.Errorf("%s Failed to load lyrics for track %d: %v", logcolors.LogLyrics, track.ID, err)
		Respond(w, r).Error(assetErrorStatus(err), err.Error())
		return
	}

	resp := LyricsResponse{
		TrackID:  track.ID,
		Title:    track.Title,
		Lines:    lines,
		Sections: lyrics.GroupSections(lines),
	}
	if len(lines) == 0 {
		resp.Message = noLyricsMessage
	}
	Respond(w, r).JSON(resp)
}

func (s *server) getTimedLyrics(w http.ResponseWriter, r *http.Request) {
	track, ok := s.lookupTrack(w, r)
	if !ok {
		return
	}

	lines, strategy, analysisStatus, duration, status, err := s.timedLines(r, track)
	if err != nil {
		Respond(w, r).Error(status, err.Error())
		return
	}

	version, _ := versionParam(r)
	resp := TimedLyricsResponse{
		TrackID:  track.ID,
		Version:  version,
		Duration: duration,
		Strategy: strategy,
		Lines:    lines,
	}
	if len(lines) == 0 {
		resp.Message = noLyricsMessage
	}
	Respond(w, r).SetStrategy(strategy).SetAnalysisStatus(analysisStatus).JSON(resp)
}

func (s *server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	track, ok := s.lookupTrack(w, r)
	if !ok {
		return
	}
	version, err := versionParam(r)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	res := s.audio.Load(track, version, true)
	if res.Err != nil {
		log.Warnf("%s Track %d (%s) audio unavailable: %v", logcolors.LogAnalysis, track.ID, version, res.Err)
		Respond(w, r).SetAnalysisStatus(analysisUnavailable).Error(assetErrorStatus(res.Err), res.Err.Error())
		return
	}
	if res.Analysis == nil {
		Respond(w, r).SetAnalysisStatus(analysisUnavailable).Error(http.StatusUnprocessableEntity, "analysis unavailable")
		return
	}

	Respond(w, r).SetAnalysisStatus(analysisOK).JSON(AnalysisResponse{
		TrackID:    track.ID,
		Version:    version,
		SampleRate: res.Buffer.SampleRate,
		Analysis:   res.Analysis,
	})
}

func (s *server) getActiveLine(w http.ResponseWriter, r *http.Request) {
	track, ok := s.lookupTrack(w, r)
	if !ok {
		return
	}

	at, hasT, err := floatParam(r, "t")
	if err != nil || !hasT {
		Respond(w, r).Error(http.StatusBadRequest, "t must be a non-negative number of seconds")
		return
	}

	lines, strategy, analysisStatus, _, status, err := s.timedLines(r, track)
	if err != nil {
		Respond(w, r).Error(status, err.Error())
		return
	}

	if !lyrics.IsOrdered(lines) {
		lines = lyrics.SortByTimestamp(lines)
	}

	resp := ActiveLineResponse{TrackID: track.ID, Time: at, Index: lyrics.CurrentIndex(lines, at), Strategy: strategy}
	if resp.Index >= 0 {
		line := lines[resp.Index]
		resp.Line = &line
	}
	for i := resp.Index + 1; i < len(lines); i++ {
		if lines[i].HasTimestamp() {
			next := *lines[i].Timestamp
			resp.Next = &next
			break
		}
	}

	Respond(w, r).SetStrategy(strategy).SetAnalysisStatus(analysisStatus).JSON(resp)
}

func (s *server) getSpectrum(w http.ResponseWriter, r *http.Request) {
	track, ok := s.lookupTrack(w, r)
	if !ok {
		return
	}
	version, err := versionParam(r)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}
	at, _, err := floatParam(r, "t")
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}
	fftSize := analysis.DefaultFFTSize
	if raw := r.URL.Query().Get("fft"); raw != "" {
		fftSize, err = strconv.Atoi(raw)
		if err != nil {
			Respond(w, r).Error(http.StatusBadRequest, "fft must be an integer")
			return
		}
	}

	res := s.audio.Load(track, version, false)
	if res.Err != nil {
		Respond(w, r).Error(assetErrorStatus(res.Err), res.Err.Error())
		return
	}

	frame, err := analysis.Spectrum(res.Buffer.Samples, res.Buffer.SampleRate, at, fftSize)
	if err != nil {
		log.Debugf("%s Track %d rejected frame request: %v", logcolors.LogSpectrum, track.ID, err)
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}
	stats.Get().RecordSpectrum()

	bins := make([]int, len(frame))
	for i, b := range frame {
		bins[i] = int(b)
	}
	Respond(w, r).JSON(SpectrumResponse{
		TrackID:    track.ID,
		Time:       at,
		FFTSize:    len(bins) * 2,
		SampleRate: res.Buffer.SampleRate,
		Bins:       bins,
	})
}

func (s *server) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
		"tracks": len(s.catalog.Tracks()),
	}

	if s.contacts != nil {
		health["contact_messages"] = s.contacts.Count()
	} else {
		health["status"] = "degraded"
		health["contact"] = "store unavailable"
	}

	if s.dispatcher != nil && s.dispatcher.Len() > 0 {
		breakers := s.dispatcher.States()
		health["notifiers"] = breakers
		for _, state := range breakers {
			if state == "OPEN" {
				health["status"] = "degraded"
			}
		}
	}

	Respond(w, r).JSON(health)
}

func (s *server) getStats(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(stats.Get().Snapshot())
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"endpoints": map[string]string{
			"GET /tracks":                   "List the playlist",
			"GET /tracks/{id}/lyrics":       "Parsed lyrics grouped by section",
			"GET /tracks/{id}/timed":        "Timed lyrics (?duration=&version=chorus|full&analyze=true|false)",
			"GET /tracks/{id}/analysis":     "Audio structure analysis (?version=chorus|full)",
			"GET /tracks/{id}/active":       "Active lyric line at a playback position (?t=&duration=)",
			"GET /tracks/{id}/spectrum":     "Visualizer frequency frame (?t=&fft=&version=)",
			"POST /contact":                 "Send a message ({name, email, message})",
			"GET /contact/messages":         "List messages (X-API-Key)",
			"DELETE /contact/messages/{id}": "Delete a message (X-API-Key)",
			"POST /contact/backup":          "Back up the message store (X-API-Key)",
			"GET /contact/backups":          "List message store backups (X-API-Key)",
			"GET /health":                   "Health check",
			"GET /stats":                    "Server statistics",
		},
	})
}
