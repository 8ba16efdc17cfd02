package main

import (
	"epk-api-go/analysis"
	"epk-api-go/catalog"
	"epk-api-go/contact"
	"epk-api-go/lyrics"
)

// Analysis status reported in the X-Analysis header
const (
	analysisOK          = "ok"
	analysisUnavailable = "unavailable"
	analysisSkipped     = "skipped"
)

// TrackListResponse is the response for /tracks
type TrackListResponse struct {
	Count  int             `json:"count"`
	Tracks []catalog.Track `json:"tracks"`
}

// LyricsResponse is the response for /tracks/{id}/lyrics
type LyricsResponse struct {
	TrackID  int              `json:"trackId"`
	Title    string           `json:"title"`
	Lines    []lyrics.Line    `json:"lines"`
	Sections []lyrics.Section `json:"sections"`
	Message  string           `json:"message,omitempty"`
}

// TimedLyricsResponse is the response for /tracks/{id}/timed
type TimedLyricsResponse struct {
	TrackID  int           `json:"trackId"`
	Version  string        `json:"version"`
	Duration float64       `json:"duration"`
	Strategy string        `json:"strategy"`
	Lines    []lyrics.Line `json:"lines"`
	Message  string        `json:"message,omitempty"`
}

// AnalysisResponse is the response for /tracks/{id}/analysis
type AnalysisResponse struct {
	TrackID    int                `json:"trackId"`
	Version    string             `json:"version"`
	SampleRate int                `json:"sampleRate"`
	Analysis   *analysis.Analysis `json:"analysis"`
}

// ActiveLineResponse is the response for /tracks/{id}/active
type ActiveLineResponse struct {
	TrackID  int          `json:"trackId"`
	Time     float64      `json:"t"`
	Index    int          `json:"index"`
	Line     *lyrics.Line `json:"line"`
	Next     *float64     `json:"nextTimestamp"`
	Strategy string       `json:"strategy"`
}

// SpectrumResponse is the response for /tracks/{id}/spectrum. Bins are ints
// so they encode as a JSON array rather than base64.
type SpectrumResponse struct {
	TrackID    int     `json:"trackId"`
	Time       float64 `json:"t"`
	FFTSize    int     `json:"fftSize"`
	SampleRate int     `json:"sampleRate"`
	Bins       []int   `json:"bins"`
}

// ContactCreatedResponse is the response for POST /contact
type ContactCreatedResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	Message   string `json:"message"`
}

// ContactListResponse is the response for GET /contact/messages
type ContactListResponse struct {
	Count    int               `json:"count"`
	Messages []contact.Message `json:"messages"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
