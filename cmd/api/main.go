// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/identity-service/internal/admin"
	"github.com/carterperez-dev/identity-service/internal/auth"
	"github.com/carterperez-dev/identity-service/internal/authz"
	"github.com/carterperez-dev/identity-service/internal/config"
	"github.com/carterperez-dev/identity-service/internal/core"
	"github.com/carterperez-dev/identity-service/internal/events"
	"github.com/carterperez-dev/identity-service/internal/health"
	"github.com/carterperez-dev/identity-service/internal/metrics"
	"github.com/carterperez-dev/identity-service/internal/middleware"
	"github.com/carterperez-dev/identity-service/internal/role"
	"github.com/carterperez-dev/identity-service/internal/seed"
	"github.com/carterperez-dev/identity-service/internal/server"
	"github.com/carterperez-dev/identity-service/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	//nolint:errcheck // .env is optional
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	signer, err := auth.NewSigner(cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("credential signer initialized",
		"algorithm", "HS256",
		"issuer", cfg.Token.Issuer,
	)

	appMetrics, err := metrics.New(metrics.Config{DBStats: db.Stats})
	if err != nil {
		return err
	}
	authorizer := authz.NewAuthorizer(appMetrics)

	publisher, closeEvents, err := events.New(cfg.Events, logger)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	roleRepo := role.NewRepository(db.DB)

	if cfg.Seed.Enabled {
		if _, err := seed.New(roleRepo, userRepo, cfg.Seed, logger).Run(ctx); err != nil {
			return err
		}
	}

	userSvc := user.NewService(user.ServiceConfig{
		Repository:     userRepo,
		Events:         publisher,
		ProtectedEmail: cfg.Seed.AdminEmail,
		Logger:         logger,
	})
	userHandler := user.NewHandler(userSvc)

	roleSvc := role.NewService(role.ServiceConfig{
		Repository: roleRepo,
		Events:     publisher,
		Logger:     logger,
	})
	roleHandler := role.NewHandler(roleSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repository:   auth.NewRepository(db.DB),
		UserProvider: userSvc,
		Signer:       signer,
		Token:        cfg.Token,
		Metrics:      appMetrics,
		Logger:       logger,
	})
	authHandler := auth.NewHandler(authSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Directory:  admin.NewDirectory(db.DB),
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(appMetrics.Middleware)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", appMetrics.Handler())

	tokenLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.TokenRequests,
			cfg.RateLimit.TokenBurst,
		),
		KeyFunc: middleware.KeyByIPAndPath,
	})

	authenticator := middleware.Authenticator(signer)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, tokenLimiter.Handler)
		userHandler.RegisterRoutes(r, authenticator, authorizer)
		roleHandler.RegisterRoutes(r, authenticator, authorizer)
		adminHandler.RegisterRoutes(r, authenticator, authorizer)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := closeEvents(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
