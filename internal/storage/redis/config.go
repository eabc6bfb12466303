package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings
type Config struct {
	// URL is redis://[user:pass@]host:port/db, or rediss:// for TLS
	URL string

	PoolSize     int
	MinIdleConns int

	// DialTimeout bounds the connectivity check in New
	DialTimeout time.Duration
}

// DefaultConfig points at a local server
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
	}
}

// ConfigFromURL builds a Config for the DATABASE_URL rawURL. A poolSize of
// zero keeps the default. The URL is parsed here so a bad value fails at
// startup rather than on first use.
func ConfigFromURL(rawURL string, poolSize int) (Config, error) {
	cfg := DefaultConfig()
	cfg.URL = rawURL
	if poolSize > 0 {
		cfg.PoolSize = poolSize
		cfg.MinIdleConns = min(cfg.MinIdleConns, poolSize)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the URL parses and the pool can hold its idle connections
func (c Config) Validate() error {
	if _, err := redis.ParseURL(c.URL); err != nil {
		return fmt.Errorf("redis url: %w", err)
	}
	if c.PoolSize < 0 || c.MinIdleConns < 0 {
		return errors.New("redis pool sizes must not be negative")
	}
	if c.PoolSize > 0 && c.MinIdleConns > c.PoolSize {
		// Idle connections beyond the pool would never be used
		return fmt.Errorf("redis min idle conns %d exceeds pool size %d", c.MinIdleConns, c.PoolSize)
	}
	return nil
}
