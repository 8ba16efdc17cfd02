package config

import (
	"epk-api-go/analysis"
	"epk-api-go/timing"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                       string   `envconfig:"PORT" default:"8080"`
		LogLevel                   string   `envconfig:"LOG_LEVEL" default:"info"`
		AllowedOrigins             []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
		RateLimitPerSecond         int      `envconfig:"RATE_LIMIT_PER_SECOND" default:"10"`
		RateLimitBurstLimit        int      `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"20"`
		ContactRateLimitPerMinute  int      `envconfig:"CONTACT_RATE_LIMIT_PER_MINUTE" default:"2"`
		ContactRateLimitBurstLimit int      `envconfig:"CONTACT_RATE_LIMIT_BURST_LIMIT" default:"3"`
		APIKey                     string   `envconfig:"API_KEY" default:""`
		// Assets
		AssetsDir   string `envconfig:"ASSETS_DIR" default:"./public"`
		CatalogPath string `envconfig:"CATALOG_PATH" default:""`
		MaxAudioMB  int    `envconfig:"MAX_AUDIO_MB" default:"50"`
		// Contact store
		ContactDBPath     string `envconfig:"CONTACT_DB_PATH" default:"./data/contact.db"`
		ContactBackupPath string `envconfig:"CONTACT_BACKUP_PATH" default:"./data/backups"`
		// Stats persistence
		StatsDBPath           string `envconfig:"STATS_DB_PATH" default:"./data/stats.db"`
		StatsSaveIntervalSecs int    `envconfig:"STATS_SAVE_INTERVAL_SECS" default:"300"`
		// Notifier delivery
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`       // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // Seconds to wait before retrying
	}

	Analysis struct {
		IntroRMS         float64 `envconfig:"ANALYSIS_INTRO_RMS" default:"0.08"`
		VocalRMS         float64 `envconfig:"ANALYSIS_VOCAL_RMS" default:"0.06"`
		OutroRMS         float64 `envconfig:"ANALYSIS_OUTRO_RMS" default:"0.015"`
		BeatRMS          float64 `envconfig:"ANALYSIS_BEAT_RMS" default:"0.3"`
		VarianceFloor    float64 `envconfig:"ANALYSIS_VARIANCE_FLOOR" default:"0.002"`
		SustainedWindows int     `envconfig:"ANALYSIS_SUSTAINED_WINDOWS" default:"2"`
		IntroMargin      float64 `envconfig:"ANALYSIS_INTRO_MARGIN" default:"2"`
		OutroMargin      float64 `envconfig:"ANALYSIS_OUTRO_MARGIN" default:"2"`
		IntroFallback    float64 `envconfig:"ANALYSIS_INTRO_FALLBACK" default:"5"`
		BeatDebounce     float64 `envconfig:"ANALYSIS_BEAT_DEBOUNCE" default:"0.3"`
		EnergyGain       float64 `envconfig:"ANALYSIS_ENERGY_GAIN" default:"20"`
	}

	Notifiers struct {
		NtfyTopic        string `envconfig:"NOTIFIER_NTFY_TOPIC" default:""`
		NtfyServer       string `envconfig:"NOTIFIER_NTFY_SERVER" default:"https://ntfy.sh"`
		TelegramBotToken string `envconfig:"NOTIFIER_TELEGRAM_BOT_TOKEN" default:""`
		TelegramChatID   string `envconfig:"NOTIFIER_TELEGRAM_CHAT_ID" default:""`
		SMTPHost         string `envconfig:"NOTIFIER_SMTP_HOST" default:""`
		SMTPPort         string `envconfig:"NOTIFIER_SMTP_PORT" default:"587"`
		SMTPUsername     string `envconfig:"NOTIFIER_SMTP_USERNAME" default:""`
		SMTPPassword     string `envconfig:"NOTIFIER_SMTP_PASSWORD" default:""`
		FromEmail        string `envconfig:"NOTIFIER_FROM_EMAIL" default:""`
		ToEmail          string `envconfig:"NOTIFIER_TO_EMAIL" default:""`
	}

	FeatureFlags struct {
		ContactCompression bool `envconfig:"FF_CONTACT_COMPRESSION" default:"true"`
		AudioTiming        bool `envconfig:"FF_AUDIO_TIMING" default:"true"`
		MapperClampToOutro bool `envconfig:"MAPPER_CLAMP_TO_OUTRO" default:"true"`
	}
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}

// Thresholds returns the analyzer thresholds from configuration. It starts
// from the analyzer defaults so zero margins from the environment are kept.
func (c Config) Thresholds() analysis.Thresholds {
	th := analysis.DefaultThresholds()
	th.IntroRMS = c.Analysis.IntroRMS
	th.VocalRMS = c.Analysis.VocalRMS
	th.OutroRMS = c.Analysis.OutroRMS
	th.BeatRMS = c.Analysis.BeatRMS
	th.VarianceFloor = c.Analysis.VarianceFloor
	th.SustainedWindows = c.Analysis.SustainedWindows
	th.IntroMargin = c.Analysis.IntroMargin
	th.OutroMargin = c.Analysis.OutroMargin
	th.IntroFallback = c.Analysis.IntroFallback
	th.BeatDebounce = c.Analysis.BeatDebounce
	th.EnergyGain = c.Analysis.EnergyGain
	return th
}

// MapOptions returns the lyric-to-audio mapper options from configuration
func (c Config) MapOptions() timing.MapOptions {
	return timing.MapOptions{ClampToOutro: c.FeatureFlags.MapperClampToOutro}
}
