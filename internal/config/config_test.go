package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/playlists?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowOrigins)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Detector.ScanRange)
	assert.Equal(t, 30, cfg.Detector.BurstSize)
	assert.Equal(t, 60*time.Second, cfg.Detector.Window)
	assert.Equal(t, "id", cfg.Logs.UserSort)
	assert.False(t, cfg.Kafka.Enabled())
	assert.True(t, cfg.DB.MigrationsEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/playlists")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DETECTOR_BURST_SIZE", "5")
	t.Setenv("DETECTOR_WINDOW", "10s")
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Detector.Params().BurstSize)
	assert.Equal(t, 10*time.Second, cfg.Detector.Params().Window)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "playlist-actions", cfg.Kafka.ActionTopic)
	assert.Len(t, cfg.HTTP.AllowOrigins, 2)
}

func TestLoad_RejectsBadDetectorParams(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/playlists")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DETECTOR_BURST_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	assert.Error(t, err)
}
