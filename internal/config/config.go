// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config errors.
var (
	ErrUnknownDriver       = errors.New("unknown STORE_DRIVER")
	ErrDatabaseURLRequired = errors.New("DATABASE_URL is required for the postgres driver")
	ErrKafkaTopicRequired  = errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	ErrInvalidRateLimit    = errors.New("rate limit RPS and burst must be positive")
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3004"`

	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/exlog.db"`

	// Cache (Redis). Empty disables the user cache and rate limiting.
	RedisURL     string        `env:"REDIS_URL"`
	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" envDefault:"24h"`

	// Events (Kafka). Empty brokers disables publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"exercise-events"`

	// Observability
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-IP rate limiting of write endpoints (needs Redis). User creation
	// and exercise logging draw from separate buckets.
	RateLimitEnabled        bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitUsersRPS       int  `env:"RATE_LIMIT_USERS_RPS" envDefault:"1"`
	RateLimitUsersBurst     int  `env:"RATE_LIMIT_USERS_BURST" envDefault:"5"`
	RateLimitExercisesRPS   int  `env:"RATE_LIMIT_EXERCISES_RPS" envDefault:"10"`
	RateLimitExercisesBurst int  `env:"RATE_LIMIT_EXERCISES_BURST" envDefault:"20"`

	// Comma-separated allowed origins; "*" allows any.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// KafkaEnabled reports whether event publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Validate checks combinations that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StoreDriver)
	}

	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return ErrKafkaTopicRequired
	}
	if c.RateLimitEnabled {
		if c.RateLimitUsersRPS <= 0 || c.RateLimitUsersBurst <= 0 {
			return fmt.Errorf("%w: RATE_LIMIT_USERS_*", ErrInvalidRateLimit)
		}
		if c.RateLimitExercisesRPS <= 0 || c.RateLimitExercisesBurst <= 0 {
			return fmt.Errorf("%w: RATE_LIMIT_EXERCISES_*", ErrInvalidRateLimit)
		}
	}
	return nil
}

// Load parses environment variables and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
