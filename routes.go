package main

import (
	"net/http"

	"epk-api-go/middleware"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router, s *server, limiter *middleware.IPRateLimiter, apiKey string) {
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RateLimitMiddleware(limiter, middleware.TierGeneral))

	// Playlist and lyrics
	router.HandleFunc("/tracks", s.listTracks).Methods(http.MethodGet)
	router.HandleFunc("/tracks/{id}/lyrics", s.getLyrics).Methods(http.MethodGet)
	router.HandleFunc("/tracks/{id}/timed", s.getTimedLyrics).Methods(http.MethodGet)
	router.HandleFunc("/tracks/{id}/active", s.getActiveLine).Methods(http.MethodGet)

	// Audio
	router.HandleFunc("/tracks/{id}/analysis", s.getAnalysis).Methods(http.MethodGet)
	router.HandleFunc("/tracks/{id}/spectrum", s.getSpectrum).Methods(http.MethodGet)

	// Contact form, with its own stricter limit on top of the general one
	contactLimit := middleware.RateLimitMiddleware(limiter, middleware.TierContact)
	router.Handle("/contact", contactLimit(http.HandlerFunc(s.submitContact))).Methods(http.MethodPost)

	// Contact admin endpoints
	admin := router.PathPrefix("/contact").Subrouter()
	admin.Use(middleware.APIKeyMiddleware(apiKey))
	admin.HandleFunc("/messages", s.listContactMessages).Methods(http.MethodGet)
	admin.HandleFunc("/messages/{id}", s.deleteContactMessage).Methods(http.MethodDelete)
	admin.HandleFunc("/backup", s.backupContacts).Methods(http.MethodPost)
	admin.HandleFunc("/backups", s.listContactBackups).Methods(http.MethodGet)

	// Health and stats endpoints
	router.HandleFunc("/health", s.getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.getStats).Methods(http.MethodGet)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
