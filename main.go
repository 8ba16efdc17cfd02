package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"epk-api-go/config"
	"epk-api-go/logcolors"
	"epk-api-go/middleware"
	"epk-api-go/stats"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var conf = config.Get()

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Configuration.LogLevel)
	if err != nil {
		log.Warnf("%s Unknown LOG_LEVEL %q, using info", logcolors.LogConfig, conf.Configuration.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	statsStore, err := stats.NewStore(conf.Configuration.StatsDBPath, stats.Get())
	if err != nil {
		log.Warnf("%s Stats persistence disabled: %v", logcolors.LogStats, err)
	} else {
		if err := statsStore.Load(); err != nil {
			log.Warnf("%s Failed to load persisted stats: %v", logcolors.LogStats, err)
		}
		statsStore.StartAutoSave(time.Duration(conf.Configuration.StatsSaveIntervalSecs) * time.Second)
	}

	srv, err := newServer(conf)
	if err != nil {
		log.Fatalf("%s %v", logcolors.LogServer, err)
	}

	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(float64(conf.Configuration.ContactRateLimitPerMinute)/60),
		conf.Configuration.ContactRateLimitBurstLimit,
	)
	stopCleanup := make(chan struct{})
	limiter.StartCleanup(time.Minute, 10*time.Minute, stopCleanup)

	router := mux.NewRouter()
	setupRoutes(router, srv, limiter, conf.Configuration.APIKey)

	c := cors.New(cors.Options{
		AllowedOrigins:   conf.Configuration.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-Timing-Strategy", "X-Analysis", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Type", "Retry-After"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("%s Server listening on port %s", logcolors.LogServer, conf.Configuration.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s %v", logcolors.LogServer, err)
		}
	}()

	<-ctx.Done()
	log.Infof("%s Shutting down", logcolors.LogServer)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
	}

	close(stopCleanup)
	if err := srv.Close(); err != nil {
		log.Warnf("%s Failed to close contact store: %v", logcolors.LogContactStore, err)
	}
	if statsStore != nil {
		statsStore.Close()
	}
}
