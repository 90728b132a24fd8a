package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the daemon.
type Config struct {
	App     AppConfig
	Backend BackendConfig
	Push    PushConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Sync    SyncConfig
}

// AppConfig controls the UI-facing HTTP server.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// BackendConfig points at the platform REST API.
type BackendConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// PushConfig points at the platform push channel.
type PushConfig struct {
	URL                   string
	ReconnectIntervalSecs int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SyncConfig tunes the reconciliation and retry behavior. The defaults
// (30s interval, 3 retries) are product choices; the guarantees around
// them (no overlapping refreshes, isolated per-collection failures,
// idempotent convergence) hold for any values.
type SyncConfig struct {
	IntervalSeconds         int
	DegradedIntervalSeconds int
	RetryCount              int
	RetryDelayMillis        int
	FocusKey                string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "admin-sync"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8090"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://127.0.0.1:5000"),
			Token:          os.Getenv("BACKEND_ADMIN_TOKEN"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		Push: PushConfig{
			URL:                   getEnv("PUSH_URL", "ws://127.0.0.1:5000/admin/events"),
			ReconnectIntervalSecs: getEnvAsInt("PUSH_RECONNECT_INTERVAL_SECONDS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Sync: SyncConfig{
			IntervalSeconds:         getEnvAsInt("SYNC_INTERVAL_SECONDS", 30),
			DegradedIntervalSeconds: getEnvAsInt("SYNC_DEGRADED_INTERVAL_SECONDS", 10),
			RetryCount:              getEnvAsInt("SYNC_RETRY_COUNT", 3),
			RetryDelayMillis:        getEnvAsInt("SYNC_RETRY_DELAY_MILLIS", 500),
			FocusKey:                getEnv("SYNC_FOCUS_KEY", "admin-sync:focus"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the backend HTTP client timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// ReconnectInterval returns the push channel reconnect check interval.
func (p PushConfig) ReconnectInterval() time.Duration {
	if p.ReconnectIntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.ReconnectIntervalSecs) * time.Second
}

// Interval returns the reconciliation cadence while the push channel is up.
func (s SyncConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// DegradedInterval returns the shortened cadence used while the push
// channel is down. Reconciliation never stops entirely either way.
func (s SyncConfig) DegradedInterval() time.Duration {
	if s.DegradedIntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.DegradedIntervalSeconds) * time.Second
}

// RetryDelay returns the fixed delay between transient fetch retries.
func (s SyncConfig) RetryDelay() time.Duration {
	if s.RetryDelayMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(s.RetryDelayMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
