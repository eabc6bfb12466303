// Package factory wires the application together from configuration.
package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/lostfound/internal/dependencies/clock"
	"github.com/mcoot/lostfound/internal/dependencies/random"
	"github.com/mcoot/lostfound/internal/metrics"
	"github.com/mcoot/lostfound/internal/services/auth"
	"github.com/mcoot/lostfound/internal/services/items"
	"github.com/mcoot/lostfound/internal/services/password"
	"github.com/mcoot/lostfound/internal/services/token"
	"github.com/mcoot/lostfound/internal/storage"
	"github.com/mcoot/lostfound/internal/storage/memory"
	"github.com/mcoot/lostfound/internal/storage/postgres"
	redisstorage "github.com/mcoot/lostfound/internal/storage/redis"
)

// Storage URL schemes
const (
	SchemeMemory     = "memory"
	SchemeRedis      = "redis"
	SchemeRedisTLS   = "rediss"
	SchemePostgres   = "postgres"
	SchemePostgreSQL = "postgresql"
)

// ErrUnsupportedStorage is returned for a DATABASE_URL with an unknown scheme
var ErrUnsupportedStorage = errors.New("unsupported storage scheme")

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	IDs   random.Source

	// Services
	Hasher      *password.Hasher
	Tokens      *token.Issuer
	AuthService *auth.Service
	ItemService *items.Service

	// Metrics
	Metrics  *metrics.Collector
	Registry *prometheus.Registry
}

// Config holds configuration for the application factory
type Config struct {
	// DatabaseURL selects and locates the storage backend:
	// memory://, redis://, rediss://, postgres:// or postgresql://
	DatabaseURL string
	// Token configures the token issuer. The secret is required.
	Token token.Config
	// Password configures the hasher (optional)
	Password password.Config
	// OperationTimeout bounds each store and hash call (optional)
	OperationTimeout time.Duration
	// RedisPoolSize overrides the Redis pool size (optional)
	RedisPoolSize int
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired. The storage
// backend is connected (and for Postgres, migrated) before New returns.
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()

	// Token and hasher first so a missing secret fails before connecting
	tokens, err := token.New(cfg.Token, clk)
	if err != nil {
		return nil, err
	}
	hasher, err := password.New(cfg.Password)
	if err != nil {
		return nil, err
	}

	store, err := OpenStorage(ctx, cfg.DatabaseURL, cfg.RedisPoolSize)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clk, random.New(), hasher, tokens, cfg.OperationTimeout, logger)
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return app, nil
}

// OpenStorage connects to the backend named by rawURL
func OpenStorage(ctx context.Context, rawURL string, redisPoolSize int) (storage.Storage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	switch u.Scheme {
	case SchemeMemory:
		return memory.New(), nil
	case SchemeRedis, SchemeRedisTLS:
		redisCfg, err := redisstorage.ConfigFromURL(rawURL, redisPoolSize)
		if err != nil {
			return nil, err
		}
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case SchemePostgres, SchemePostgreSQL:
		store, err := postgres.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStorage, u.Scheme)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	ids random.Source,
	hasher *password.Hasher,
	tokens *token.Issuer,
	timeout time.Duration,
	logger *slog.Logger,
) *App {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authService := auth.New(store, hasher, tokens, clk, ids, auth.Config{OperationTimeout: timeout}, collector, logger)
	itemService := items.New(store, clk, ids, items.Config{OperationTimeout: timeout}, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		IDs:         ids,
		Hasher:      hasher,
		Tokens:      tokens,
		AuthService: authService,
		ItemService: itemService,
		Metrics:     collector,
		Registry:    registry,
	}
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
