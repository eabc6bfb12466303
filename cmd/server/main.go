package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/lostfound/internal/api"
	"github.com/mcoot/lostfound/internal/api/middleware"
	"github.com/mcoot/lostfound/internal/config"
	"github.com/mcoot/lostfound/internal/factory"
	"github.com/mcoot/lostfound/internal/metrics"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create application factory
	app, err := factory.New(ctx, factory.Config{
		DatabaseURL:      cfg.DatabaseURL,
		Token:            cfg.Token,
		Password:         cfg.Password,
		OperationTimeout: cfg.OperationTimeout,
		RedisPoolSize:    cfg.RedisPoolSize,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("storage close failed", slog.String("error", err.Error()))
		}
	}()

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.LoginRatePerMinute), logger, app.Metrics)
	defer limiter.Stop()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		ItemService:    app.ItemService,
		Metrics:        app.Metrics,
		MetricsHandler: metrics.Handler(app.Registry),
		RateLimiter:    limiter,
		HealthCheck:    app.Storage.Ping,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.ServerHost
	serverConfig.Port = cfg.ServerPort
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("token_ttl", cfg.Token.TTL.String()),
		slog.Int("bcrypt_cost", app.Hasher.Cost()),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
