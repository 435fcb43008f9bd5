package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	GRPC    GRPCConfig
	Board   BoardConfig
	Stream  StreamConfig
	Worker  WorkerConfig
	DB      DatabaseConfig
	Locate  LocateConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	RateLimitRPS    int
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

type GRPCConfig struct {
	Port int
}

type BoardConfig struct {
	SeedEnabled bool
	SeedFile    string // empty uses the built-in mock alerts
}

type StreamConfig struct {
	BufferSize int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type DatabaseConfig struct {
	Path string
}

type LocateConfig struct {
	GeoIPPath string // empty disables location lookup
	CacheSize int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS:    getEnvInt("RATE_LIMIT_RPS", 5),
			CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		GRPC: GRPCConfig{
			Port: getEnvInt("GRPC_PORT", 50051),
		},
		Board: BoardConfig{
			SeedEnabled: getEnvBool("SEED_ENABLED", true),
			SeedFile:    getEnv("SEED_FILE", ""),
		},
		Stream: StreamConfig{
			BufferSize: getEnvInt("STREAM_BUFFER_SIZE", 100),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", ":memory:"),
		},
		Locate: LocateConfig{
			GeoIPPath: getEnv("GEOIP_DB_PATH", ""),
			CacheSize: getEnvInt("GEOIP_CACHE_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.GRPC.Port < 1 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.GRPC.Port)
	}
	if c.GRPC.Port == c.Server.Port {
		return fmt.Errorf("grpc port %d collides with server port", c.GRPC.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s, got %d", c.Server.RateLimitRPS)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Worker.BufferSize < 0 {
		return fmt.Errorf("worker buffer size must not be negative")
	}
	if c.Stream.BufferSize < 1 {
		return fmt.Errorf("stream buffer size must be at least 1")
	}
	if c.Locate.CacheSize < 1 {
		return fmt.Errorf("geoip cache size must be at least 1")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
