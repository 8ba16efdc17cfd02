package main

import (
	"encoding/json"
	"net/http"
)

// APIResponse handles consistent header setting and JSON responses.
// X-Timing-Strategy and X-Analysis describe how timed lyrics were produced.
type APIResponse struct {
	w              http.ResponseWriter
	r              *http.Request
	strategy       string
	analysisStatus string
}

// Respond creates a response helper for a request
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetStrategy sets the X-Timing-Strategy header value
func (a *APIResponse) SetStrategy(strategy string) *APIResponse {
	a.strategy = strategy
	return a
}

// SetAnalysisStatus sets the X-Analysis header value
func (a *APIResponse) SetAnalysisStatus(status string) *APIResponse {
	a.analysisStatus = status
	return a
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.strategy != "" {
		a.w.Header().Set("X-Timing-Strategy", a.strategy)
	}
	if a.analysisStatus != "" {
		a.w.Header().Set("X-Analysis", a.analysisStatus)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	return a.Status(http.StatusOK, data)
}

// Status writes headers with the given status code and encodes data as JSON
func (a *APIResponse) Status(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes an ErrorResponse with the given status code
func (a *APIResponse) Error(statusCode int, message string) error {
	return a.Status(statusCode, ErrorResponse{Error: http.StatusText(statusCode), Message: message})
}

// NoContent writes a bare 204
func (a *APIResponse) NoContent() {
	a.writeHeaders()
	a.w.WriteHeader(http.StatusNoContent)
}
