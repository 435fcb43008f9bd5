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

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50051, cfg.GRPC.Port)
	assert.Equal(t, 5, cfg.Server.RateLimitRPS)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Board.SeedEnabled)
	assert.Empty(t, cfg.Board.SeedFile)
	assert.Equal(t, 100, cfg.Stream.BufferSize)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.Equal(t, 20, cfg.Worker.BufferSize)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Empty(t, cfg.Locate.GeoIPPath)
	assert.Equal(t, 256, cfg.Locate.CacheSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GRPC_PORT", "9091")
	t.Setenv("RATE_LIMIT_RPS", "20")
	t.Setenv("CORS_ORIGINS", "https://board.example, https://admin.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SEED_ENABLED", "false")
	t.Setenv("SEED_FILE", "/etc/board/seed.yaml")
	t.Setenv("STREAM_BUFFER_SIZE", "16")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("WORKER_BUFFER_SIZE", "0")
	t.Setenv("DB_PATH", "/tmp/board.db")
	t.Setenv("GEOIP_DB_PATH", "/data/GeoLite2-City.mmdb")
	t.Setenv("GEOIP_CACHE_SIZE", "32")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 9091, cfg.GRPC.Port)
	assert.Equal(t, 20, cfg.Server.RateLimitRPS)
	assert.Equal(t, []string{"https://board.example", "https://admin.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Board.SeedEnabled)
	assert.Equal(t, "/etc/board/seed.yaml", cfg.Board.SeedFile)
	assert.Equal(t, 16, cfg.Stream.BufferSize)
	assert.Equal(t, 4, cfg.Worker.Count)
	assert.Equal(t, 0, cfg.Worker.BufferSize)
	assert.Equal(t, "/tmp/board.db", cfg.DB.Path)
	assert.Equal(t, "/data/GeoLite2-City.mmdb", cfg.Locate.GeoIPPath)
	assert.Equal(t, 32, cfg.Locate.CacheSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	t.Setenv("SEED_ENABLED", "maybe")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Board.SeedEnabled)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"grpc port out of range", "GRPC_PORT", "0"},
		{"grpc port collides with http", "GRPC_PORT", "8080"},
		{"zero rate limit", "RATE_LIMIT_RPS", "0"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"no workers", "WORKER_COUNT", "0"},
		{"negative worker buffer", "WORKER_BUFFER_SIZE", "-1"},
		{"zero stream buffer", "STREAM_BUFFER_SIZE", "0"},
		{"zero geoip cache", "GEOIP_CACHE_SIZE", "0"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
