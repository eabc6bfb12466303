// Package config loads process configuration from the environment once at
// startup. The result is passed explicitly to constructors; nothing else in
// the tree reads the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/lostfound/internal/services/password"
	"github.com/mcoot/lostfound/internal/services/token"
)

// ErrMissingConfig is returned when a required variable is unset
var ErrMissingConfig = errors.New("missing required configuration")

// Environment variable names
const (
	EnvServerHost         = "SERVER_HOST"
	EnvServerPort         = "SERVER_PORT"
	EnvDatabaseURL        = "DATABASE_URL"
	EnvJWTSecret          = "JWT_SECRET"
	EnvJWTPreviousSecrets = "JWT_PREVIOUS_SECRETS"
	EnvTokenTTL           = "TOKEN_TTL"
	EnvTokenIssuer        = "TOKEN_ISSUER"
	EnvBcryptCost         = "BCRYPT_COST"
	EnvHashWorkers        = "HASH_WORKERS"
	EnvOperationTimeout   = "OPERATION_TIMEOUT"
	EnvLoginRate          = "LOGIN_RATE_PER_MINUTE"
	EnvLogLevel           = "LOG_LEVEL"
	EnvRedisPoolSize      = "REDIS_POOL_SIZE"
)

// Config is the full process configuration
type Config struct {
	ServerHost  string
	ServerPort  int
	DatabaseURL string

	Token    token.Config
	Password password.Config

	OperationTimeout   time.Duration
	LoginRatePerMinute int
	LogLevel           slog.Level
	RedisPoolSize      int
}

// Load reads the configuration from the process environment
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv. Every problem is
// reported at once: missing required variables and unparsable values are
// joined into one error.
func LoadFrom(getenv func(string) string) (Config, error) {
	l := loader{getenv: getenv}

	cfg := Config{
		ServerHost:  l.str(EnvServerHost, ""),
		ServerPort:  l.number(EnvServerPort, 8080),
		DatabaseURL: l.required(EnvDatabaseURL),
		Token: token.Config{
			Secret:          l.required(EnvJWTSecret),
			PreviousSecrets: l.list(EnvJWTPreviousSecrets),
			TTL:             l.duration(EnvTokenTTL, 24*time.Hour),
			Issuer:          l.str(EnvTokenIssuer, "lostfound"),
		},
		Password: password.Config{
			Cost:    l.number(EnvBcryptCost, 10),
			Workers: l.number(EnvHashWorkers, runtime.NumCPU()),
		},
		OperationTimeout:   l.duration(EnvOperationTimeout, 5*time.Second),
		LoginRatePerMinute: l.number(EnvLoginRate, 20),
		LogLevel:           l.level(EnvLogLevel, slog.LevelInfo),
		RedisPoolSize:      l.number(EnvRedisPoolSize, 10),
	}

	if cfg.ServerPort < 1 || cfg.ServerPort > 65535 {
		l.errs = append(l.errs, fmt.Errorf("%s: port %d out of range", EnvServerPort, cfg.ServerPort))
	}
	if cfg.Token.TTL <= 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: must be positive", EnvTokenTTL))
	}
	if cfg.OperationTimeout <= 0 {
		l.errs = append(l.errs, fmt.Errorf("%s: must be positive", EnvOperationTimeout))
	}

	if err := l.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type loader struct {
	getenv  func(string) string
	missing []string
	errs    []error
}

func (l *loader) str(key, def string) string {
	if v := strings.TrimSpace(l.getenv(key)); v != "" {
		return v
	}
	return def
}

func (l *loader) required(key string) string {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		l.missing = append(l.missing, key)
	}
	return v
}

func (l *loader) number(key string, def int) int {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (l *loader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(l.getenv(key))
	if v == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		l.errs = append(l.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return level
}

func (l *loader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(l.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (l *loader) err() error {
	errs := l.errs
	if len(l.missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(l.missing, ", ")))
		for _, key := range l.missing {
			if key == EnvJWTSecret {
				errs = append(errs, token.ErrMissingSecret)
			}
		}
	}
	return errors.Join(errs...)
}
