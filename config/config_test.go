package config

import (
	"os"
	"testing"

	"epk-api-go/analysis"
)

// unsetEnv clears the given variables and returns a func restoring them
func unsetEnv(t *testing.T, keys ...string) func() {
	t.Helper()

	originalValues := make(map[string]string)
	for _, key := range keys {
		originalValues[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	return func() {
		for key, value := range originalValues {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}
}

func TestConfigDefaultValues(t *testing.T) {
	restore := unsetEnv(t,
		"PORT",
		"RATE_LIMIT_PER_SECOND",
		"RATE_LIMIT_BURST_LIMIT",
		"CONTACT_RATE_LIMIT_PER_MINUTE",
		"CONTACT_RATE_LIMIT_BURST_LIMIT",
		"ASSETS_DIR",
		"MAX_AUDIO_MB",
		"FF_CONTACT_COMPRESSION",
		"FF_AUDIO_TIMING",
		"MAPPER_CLAMP_TO_OUTRO",
		"STATS_SAVE_INTERVAL_SECS",
	)
	defer restore()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port default", cfg.Configuration.Port, "8080"},
		{"RateLimitPerSecond default", cfg.Configuration.RateLimitPerSecond, 10},
		{"RateLimitBurstLimit default", cfg.Configuration.RateLimitBurstLimit, 20},
		{"ContactRateLimitPerMinute default", cfg.Configuration.ContactRateLimitPerMinute, 2},
		{"ContactRateLimitBurstLimit default", cfg.Configuration.ContactRateLimitBurstLimit, 3},
		{"AssetsDir default", cfg.Configuration.AssetsDir, "./public"},
		{"MaxAudioMB default", cfg.Configuration.MaxAudioMB, 50},
		{"ContactCompression default", cfg.FeatureFlags.ContactCompression, true},
		{"AudioTiming default", cfg.FeatureFlags.AudioTiming, true},
		{"MapperClampToOutro default", cfg.FeatureFlags.MapperClampToOutro, true},
		{"StatsSaveIntervalSecs default", cfg.Configuration.StatsSaveIntervalSecs, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestConfigEnvironmentOverrides(t *testing.T) {
	os.Setenv("PORT", "9090")
	os.Setenv("RATE_LIMIT_PER_SECOND", "3")
	os.Setenv("ALLOWED_ORIGINS", "https://devinfox.com,http://localhost:3000")
	os.Setenv("MAPPER_CLAMP_TO_OUTRO", "false")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("RATE_LIMIT_PER_SECOND")
		os.Unsetenv("ALLOWED_ORIGINS")
		os.Unsetenv("MAPPER_CLAMP_TO_OUTRO")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Configuration.Port != "9090" {
		t.Errorf("Expected Port '9090', got %q", cfg.Configuration.Port)
	}
	if cfg.Configuration.RateLimitPerSecond != 3 {
		t.Errorf("Expected RateLimitPerSecond 3, got %d", cfg.Configuration.RateLimitPerSecond)
	}
	if len(cfg.Configuration.AllowedOrigins) != 2 || cfg.Configuration.AllowedOrigins[0] != "https://devinfox.com" {
		t.Errorf("Expected two allowed origins, got %v", cfg.Configuration.AllowedOrigins)
	}
	if cfg.MapOptions().ClampToOutro {
		t.Error("Expected ClampToOutro to be disabled")
	}
}

func TestConfigThresholdsMatchAnalyzerDefaults(t *testing.T) {
	restore := unsetEnv(t,
		"ANALYSIS_INTRO_RMS",
		"ANALYSIS_VOCAL_RMS",
		"ANALYSIS_OUTRO_RMS",
		"ANALYSIS_BEAT_RMS",
		"ANALYSIS_VARIANCE_FLOOR",
		"ANALYSIS_SUSTAINED_WINDOWS",
		"ANALYSIS_INTRO_MARGIN",
		"ANALYSIS_OUTRO_MARGIN",
		"ANALYSIS_INTRO_FALLBACK",
		"ANALYSIS_BEAT_DEBOUNCE",
		"ANALYSIS_ENERGY_GAIN",
	)
	defer restore()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got, expected := cfg.Thresholds(), analysis.DefaultThresholds(); got != expected {
		t.Errorf("Expected config thresholds %+v to match analyzer defaults %+v", got, expected)
	}
}

func TestConfigThresholdOverride(t *testing.T) {
	os.Setenv("ANALYSIS_BEAT_RMS", "0.45")
	os.Setenv("ANALYSIS_SUSTAINED_WINDOWS", "3")
	defer func() {
		os.Unsetenv("ANALYSIS_BEAT_RMS")
		os.Unsetenv("ANALYSIS_SUSTAINED_WINDOWS")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	th := cfg.Thresholds()
	if th.BeatRMS != 0.45 {
		t.Errorf("Expected BeatRMS 0.45, got %v", th.BeatRMS)
	}
	if th.SustainedWindows != 3 {
		t.Errorf("Expected SustainedWindows 3, got %d", th.SustainedWindows)
	}
}

func TestConfigThresholdZeroMargins(t *testing.T) {
	os.Setenv("ANALYSIS_INTRO_MARGIN", "0")
	os.Setenv("ANALYSIS_OUTRO_MARGIN", "0")
	defer func() {
		os.Unsetenv("ANALYSIS_INTRO_MARGIN")
		os.Unsetenv("ANALYSIS_OUTRO_MARGIN")
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	th := cfg.Thresholds()
	if th.IntroMargin != 0 || th.OutroMargin != 0 {
		t.Errorf("Expected zero margins, got intro %v outro %v", th.IntroMargin, th.OutroMargin)
	}
	if th.VocalRMS != analysis.DefaultThresholds().VocalRMS {
		t.Errorf("Expected default VocalRMS, got %v", th.VocalRMS)
	}
}

func TestFeatureFlagContactCompression(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"Contact compression enabled (true)", "true", true},
		{"Contact compression disabled (false)", "false", false},
		{"Contact compression enabled (1)", "1", true},
		{"Contact compression disabled (0)", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("FF_CONTACT_COMPRESSION", tt.envValue)
			defer os.Unsetenv("FF_CONTACT_COMPRESSION")

			cfg, err := load()
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}
			if cfg.FeatureFlags.ContactCompression != tt.expected {
				t.Errorf("Expected ContactCompression %v, got %v", tt.expected, cfg.FeatureFlags.ContactCompression)
			}
		})
	}
}

func TestGet(t *testing.T) {
	cfg := Get()

	if cfg.Configuration.RateLimitPerSecond == 0 && cfg.Configuration.RateLimitBurstLimit == 0 {
		t.Error("Expected Get() to return initialized config, got zero values")
	}
}

func TestMustLoad(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("mustLoad() panicked: %v", r)
		}
	}()

	cfg := mustLoad()

	if cfg.Configuration.RateLimitPerSecond <= 0 {
		t.Error("Expected mustLoad to return valid config with positive RateLimitPerSecond")
	}
}
