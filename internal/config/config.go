package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Feed endpoints and client behavior.
	AlertFeedURL     string
	ReportFeedURL    string
	FeedTimeout      time.Duration
	FeedMaxRetries   uint64
	FeedRetryDelay   time.Duration
	FeedRatePerSec   float64
	FeedCacheEntries int

	// Correlation window and geometry.
	LookbackDays    int
	BBoxRadiusDeg   float64
	OnDemandTimeout time.Duration

	// Batch scheduling.
	BatchInterval time.Duration
	BatchTimeout  time.Duration
	WorkerCount   int

	// Scoring knobs. All of these are deliberately configuration rather than
	// constants; the defaults encode the operational values.
	HailRadiusMiles     float64
	WindRadiusMiles     float64
	StormRadiusMiles    float64
	HailMagnitudeCapIn  float64
	WindMagnitudeCap    float64
	NominalAlertScore   float64
	SingleSourceFactor  float64
	DualSourceFactor    float64
	MultiSourceFactor   float64
	HighConfidenceMin   int
	MediumConfidenceMin int

	// Persistence and publishing.
	SQLitePath     string
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feedTimeout, err := parseDuration("FEED_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	feedRetryDelay, err := parseDuration("FEED_RETRY_DELAY", "250ms")
	if err != nil {
		return nil, err
	}
	onDemandTimeout, err := parseDuration("ONDEMAND_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	batchInterval, err := parseDuration("BATCH_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	batchTimeout, err := parseDuration("BATCH_TIMEOUT", "1h")
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		AlertFeedURL:     sharedcfg.EnvOrDefault("ALERT_FEED_URL", "https://api.weather.gov"),
		ReportFeedURL:    sharedcfg.EnvOrDefault("REPORT_FEED_URL", "https://mesonet.agron.iastate.edu/geojson"),
		FeedTimeout:      feedTimeout,
		FeedMaxRetries:   uint64(envInt("FEED_MAX_RETRIES", 2)),
		FeedRetryDelay:   feedRetryDelay,
		FeedRatePerSec:   envFloat("FEED_RATE_PER_SEC", 4),
		FeedCacheEntries: envInt("FEED_CACHE_ENTRIES", 256),

		LookbackDays:    envInt("LOOKBACK_DAYS", 120),
		BBoxRadiusDeg:   envFloat("BBOX_RADIUS_DEGREES", 0.5),
		OnDemandTimeout: onDemandTimeout,

		BatchInterval: batchInterval,
		BatchTimeout:  batchTimeout,
		WorkerCount:   envInt("WORKER_COUNT", 4),

		HailRadiusMiles:     envFloat("HAIL_RADIUS_MILES", 8),
		WindRadiusMiles:     envFloat("WIND_RADIUS_MILES", 15),
		StormRadiusMiles:    envFloat("STORM_RADIUS_MILES", 20),
		HailMagnitudeCapIn:  envFloat("HAIL_MAGNITUDE_CAP_IN", 2.0),
		WindMagnitudeCap:    envFloat("WIND_MAGNITUDE_CAP_MPH", 70),
		NominalAlertScore:   envFloat("WATCH_NOMINAL_SCORE", 0.3),
		SingleSourceFactor:  envFloat("SINGLE_SOURCE_FACTOR", 0.8),
		DualSourceFactor:    envFloat("DUAL_SOURCE_FACTOR", 0.95),
		MultiSourceFactor:   envFloat("MULTI_SOURCE_FACTOR", 1.0),
		HighConfidenceMin:   envInt("HIGH_CONFIDENCE_MIN", 70),
		MediumConfidenceMin: envInt("MEDIUM_CONFIDENCE_MIN", 40),

		SQLitePath:     sharedcfg.EnvOrDefault("SQLITE_PATH", "storm-dol.db"),
		KafkaBrokers:   brokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "weather-intel"),
		KafkaEnabled:   kafkaEnabled,
	}

	if cfg.AlertFeedURL == "" {
		return nil, errors.New("ALERT_FEED_URL is required")
	}
	if cfg.ReportFeedURL == "" {
		return nil, errors.New("REPORT_FEED_URL is required")
	}
	if cfg.LookbackDays <= 0 {
		return nil, errors.New("LOOKBACK_DAYS must be positive")
	}
	if cfg.WorkerCount <= 0 {
		return nil, errors.New("WORKER_COUNT must be positive")
	}
	if cfg.HailRadiusMiles <= 0 || cfg.WindRadiusMiles <= 0 || cfg.StormRadiusMiles <= 0 {
		return nil, errors.New("relevance radii must be positive")
	}
	if cfg.HailMagnitudeCapIn <= 0 || cfg.WindMagnitudeCap <= 0 {
		return nil, errors.New("magnitude caps must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return fallback
}
