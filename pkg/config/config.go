// Package config loads application configuration from environment
// variables. Every variable has a sensible default so the service starts
// with no environment at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/castlegateit/memberdir/pkg/observability"
	"github.com/castlegateit/memberdir/pkg/store"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	Store  store.Config
	Search SearchConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes).
	HealthPort string
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	// SchemaPath is the optional YAML file supplying extension fields.
	SchemaPath string

	// PerPage is the default page size for search results.
	PerPage int

	// Approval enables the approval-status predicate. Off unless the
	// deployment actually runs an approval workflow.
	Approval bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level observability.LogLevel
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("MEMBERDIR_HOST", "0.0.0.0"),
			Port:            getEnv("MEMBERDIR_PORT", "8080"),
			ReadTimeout:     getEnvDuration("MEMBERDIR_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("MEMBERDIR_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("MEMBERDIR_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("MEMBERDIR_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("MEMBERDIR_HEALTH_PORT", "9090"),
		},
		Store:  loadStoreConfig(),
		Search: loadSearchConfig(),
		Log: LogConfig{
			Level: parseLogLevel(getEnv("MEMBERDIR_LOG_LEVEL", "info")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadStoreConfig() store.Config {
	cfg := store.DefaultConfig()

	if driver := getEnv("MEMBERDIR_STORE_DRIVER", ""); driver != "" {
		cfg.Driver = driver
	}
	if pgURL := getEnv("MEMBERDIR_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if path := getEnv("MEMBERDIR_SQLITE_PATH", ""); path != "" {
		cfg.SQLitePath = path
	}
	if maxConns := getEnvInt("MEMBERDIR_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("MEMBERDIR_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("MEMBERDIR_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}
	if redisURL := getEnv("MEMBERDIR_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	cfg.RedisPassword = getEnv("MEMBERDIR_REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("MEMBERDIR_REDIS_DB", 0)
	if ttl := getEnvDuration("MEMBERDIR_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

func loadSearchConfig() SearchConfig {
	return SearchConfig{
		SchemaPath: getEnv("MEMBERDIR_SCHEMA_PATH", ""),
		PerPage:    getEnvInt("MEMBERDIR_SEARCH_PER_PAGE", 10),
		Approval:   getEnvBool("MEMBERDIR_APPROVAL_ENABLED", false),
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("MEMBERDIR_POSTGRES_URL is required for the postgres driver")
		}
	case "sqlite":
		// Empty path falls back to in-memory.
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	if c.Search.PerPage < 0 {
		return fmt.Errorf("MEMBERDIR_SEARCH_PER_PAGE must not be negative")
	}

	return nil
}

func parseLogLevel(s string) observability.LogLevel {
	switch s {
	case "debug":
		return observability.DebugLevel
	case "warn":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
