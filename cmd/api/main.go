// Package main is the entrypoint for the exlog API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/exlog/exlog/internal/cache"
	"github.com/exlog/exlog/internal/config"
	"github.com/exlog/exlog/internal/events"
	"github.com/exlog/exlog/internal/handler"
	"github.com/exlog/exlog/internal/metrics"
	"github.com/exlog/exlog/internal/middleware"
	"github.com/exlog/exlog/internal/migrate"
	"github.com/exlog/exlog/internal/repository"
	"github.com/exlog/exlog/internal/repository/memory"
	"github.com/exlog/exlog/internal/repository/postgres"
	"github.com/exlog/exlog/internal/repository/sqlite"
	"github.com/exlog/exlog/internal/server"
	"github.com/exlog/exlog/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := initLogger(cfg)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srvOpts := server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		prom := metrics.NewPrometheus()
		recorder = prom
		metricsHandler = prom.Handler()
	}

	var (
		userCache   service.UserCache
		limiter     middleware.WriteLimiter
		cacheHealth handler.HealthChecker
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL, cache.WithUserTTL(cfg.UserCacheTTL))
		if err != nil {
			_ = store.Close()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return fmt.Errorf("connect redis: %s", sanitizeError(err, cfg.RedisURL))
		}
		userCache, limiter, cacheHealth = cacheClient, cacheClient, cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Info("redis not configured; user cache and rate limiting disabled")
	}

	publisher := events.NewNoop()
	if cfg.KafkaEnabled() {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("publishing exercise events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	userService := service.NewUserService(store, userCache, recorder)
	exerciseService := service.NewExerciseService(store, userService, publisher, recorder)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	r := handler.NewRouter(handler.RouterConfig{
		Logger:    logger,
		Users:     userService,
		Exercises: exerciseService,
		Health:    handler.NewHealthHandler(store, cacheHealth),
		Metrics:   metricsHandler,
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Enabled: cfg.RateLimitEnabled,
			Budgets: map[cache.WriteRoute]cache.Budget{
				cache.RouteCreateUser:  {Rate: cfg.RateLimitUsersRPS, Burst: cfg.RateLimitUsersBurst},
				cache.RouteLogExercise: {Rate: cfg.RateLimitExercisesRPS, Burst: cfg.RateLimitExercisesBurst},
			},
		},
		CORS:               cors,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		IncludePanicStack:  cfg.IsDevelopment(),
	})

	srv := server.New(r, srvOpts, logger)
	// Stopped in reverse: events flush first, the store closes last.
	srv.OnClose("store", store.Close)
	if cacheClient != nil {
		srv.OnClose("redis", cacheClient.Close)
	}
	srv.OnClose("events", publisher.Close)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"metrics", cfg.MetricsEnabled,
	)

	return srv.Run()
}

// openStore connects the configured backend, applying migrations where needed.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		migrateCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		applied, err := migrate.ApplyPostgres(migrateCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to migrate database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, fmt.Errorf("migrate postgres: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("migrations applied", "count", len(applied), "files", applied)

		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, fmt.Errorf("connect postgres: %s", sanitizeError(err, cfg.DatabaseURL))
		}
		logger.Info("connected to database", "driver", cfg.StoreDriver)
		return store, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		logger.Info("opened database", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return store, nil

	default:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "exlog")
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	q := parsed.Query()
	if q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

// sanitizeError replaces any secret connection string inside err's message.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
