package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	assert.Equal(t, "https://api.weather.gov", cfg.AlertFeedURL)
	assert.Equal(t, "https://mesonet.agron.iastate.edu/geojson", cfg.ReportFeedURL)
	assert.Equal(t, 10*time.Second, cfg.FeedTimeout)
	assert.Equal(t, uint64(2), cfg.FeedMaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.FeedRetryDelay)
	assert.Equal(t, 4.0, cfg.FeedRatePerSec)
	assert.Equal(t, 256, cfg.FeedCacheEntries)

	assert.Equal(t, 120, cfg.LookbackDays)
	assert.Equal(t, 0.5, cfg.BBoxRadiusDeg)
	assert.Equal(t, 5*time.Second, cfg.OnDemandTimeout)

	assert.Equal(t, 24*time.Hour, cfg.BatchInterval)
	assert.Equal(t, time.Hour, cfg.BatchTimeout)
	assert.Equal(t, 4, cfg.WorkerCount)

	assert.Equal(t, 8.0, cfg.HailRadiusMiles)
	assert.Equal(t, 15.0, cfg.WindRadiusMiles)
	assert.Equal(t, 20.0, cfg.StormRadiusMiles)
	assert.Equal(t, 2.0, cfg.HailMagnitudeCapIn)
	assert.Equal(t, 70.0, cfg.WindMagnitudeCap)
	assert.Equal(t, 0.3, cfg.NominalAlertScore)
	assert.Equal(t, 0.8, cfg.SingleSourceFactor)
	assert.Equal(t, 0.95, cfg.DualSourceFactor)
	assert.Equal(t, 1.0, cfg.MultiSourceFactor)
	assert.Equal(t, 70, cfg.HighConfidenceMin)
	assert.Equal(t, 40, cfg.MediumConfidenceMin)

	assert.Equal(t, "storm-dol.db", cfg.SQLitePath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "weather-intel", cfg.KafkaSinkTopic)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALERT_FEED_URL", "http://alerts.internal")
	t.Setenv("LOOKBACK_DAYS", "30")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("HAIL_RADIUS_MILES", "10")
	t.Setenv("BATCH_INTERVAL", "6h")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "http://alerts.internal", cfg.AlertFeedURL)
	assert.Equal(t, 30, cfg.LookbackDays)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 10.0, cfg.HailRadiusMiles)
	assert.Equal(t, 6*time.Hour, cfg.BatchInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled, "brokers imply publishing")
}

func TestLoad_KafkaDisabledExplicitly(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "BATCH_INTERVAL", "often"},
		{"negative duration", "FEED_TIMEOUT", "-5s"},
		{"zero lookback", "LOOKBACK_DAYS", "0"},
		{"zero workers", "WORKER_COUNT", "0"},
		{"negative radius", "WIND_RADIUS_MILES", "-1"},
		{"zero magnitude cap", "HAIL_MAGNITUDE_CAP_IN", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
}
