package config

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected default AppEnv 'development', got %s", cfg.AppEnv)
	}
	if cfg.AppPort != 3004 {
		t.Errorf("expected default AppPort 3004, got %d", cfg.AppPort)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Errorf("expected default StoreDriver memory, got %s", cfg.StoreDriver)
	}
	if cfg.UserCacheTTL != 24*time.Hour {
		t.Errorf("expected default UserCacheTTL 24h, got %s", cfg.UserCacheTTL)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected default LogFormat 'json', got %s", cfg.LogFormat)
	}
	if cfg.KafkaEnabled() {
		t.Error("expected kafka disabled by default")
	}
	if cfg.RateLimitUsersBurst != 5 || cfg.RateLimitExercisesBurst != 20 {
		t.Errorf("expected separate write budgets 5/20, got %d/%d", cfg.RateLimitUsersBurst, cfg.RateLimitExercisesBurst)
	}
	if cfg.MaxRequestBodySize != 1<<20 {
		t.Errorf("expected default MaxRequestBodySize 1MiB, got %d", cfg.MaxRequestBodySize)
	}
}

func TestLoad_ListVariables(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if want := []string{"kafka-1:9092", "kafka-2:9092"}; !reflect.DeepEqual(cfg.KafkaBrokers, want) {
		t.Errorf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
	if want := []string{"https://a.example.com", "https://b.example.com"}; !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	if !cfg.KafkaEnabled() {
		t.Error("expected kafka enabled")
	}
}

func TestLoad_PostgresWithoutURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if !errors.Is(err, ErrDatabaseURLRequired) {
		t.Fatalf("expected ErrDatabaseURLRequired, got %v", err)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("USER_CACHE_TTL", "forever")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			StoreDriver:             DriverMemory,
			RateLimitEnabled:        true,
			RateLimitUsersRPS:       1,
			RateLimitUsersBurst:     1,
			RateLimitExercisesRPS:   1,
			RateLimitExercisesBurst: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"memory ok", func(c *Config) {}, nil},
		{"sqlite ok", func(c *Config) { c.StoreDriver = DriverSQLite }, nil},
		{"postgres with url", func(c *Config) {
			c.StoreDriver = DriverPostgres
			c.DatabaseURL = "postgres://localhost/exlog"
		}, nil},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }, ErrDatabaseURLRequired},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, ErrUnknownDriver},
		{"kafka without topic", func(c *Config) {
			c.KafkaBrokers = []string{"localhost:9092"}
		}, ErrKafkaTopicRequired},
		{"zero users rate", func(c *Config) { c.RateLimitUsersRPS = 0 }, ErrInvalidRateLimit},
		{"zero exercises burst", func(c *Config) { c.RateLimitExercisesBurst = 0 }, ErrInvalidRateLimit},
		{"zero rate when disabled", func(c *Config) {
			c.RateLimitEnabled = false
			c.RateLimitUsersRPS = 0
			c.RateLimitExercisesRPS = 0
		}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	t.Parallel()

	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
}
