// Package password hashes and verifies account passwords with bcrypt.
//
// Hashing is CPU bound, so every bcrypt call runs under a weighted semaphore
// that caps how many run at once. Callers waiting for a slot give up when
// their context is done.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxLength is the longest password bcrypt accepts, in bytes
const MaxLength = 72

var (
	ErrEmptyPassword   = errors.New("password is empty")
	ErrPasswordTooLong = fmt.Errorf("password exceeds %d bytes", MaxLength)
)

// Config holds configuration for the hasher
type Config struct {
	Cost    int
	Workers int
}

// DefaultConfig returns default hasher configuration
func DefaultConfig() Config {
	return Config{
		Cost:    bcrypt.DefaultCost,
		Workers: runtime.NumCPU(),
	}
}

// Hasher produces and checks bcrypt hashes
type Hasher struct {
	cost   int
	slots  *semaphore.Weighted
	filler []byte
}

// New creates a Hasher. Zero values in cfg fall back to the defaults.
func New(cfg Config) (*Hasher, error) {
	defaults := DefaultConfig()
	if cfg.Cost == 0 {
		cfg.Cost = defaults.Cost
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cfg.Cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// Used by DummyVerify; same cost as real hashes so both paths take as long
	filler, err := bcrypt.GenerateFromPassword([]byte("lostfound-filler"), cfg.Cost)
	if err != nil {
		return nil, err
	}

	return &Hasher{
		cost:   cfg.Cost,
		slots:  semaphore.NewWeighted(int64(cfg.Workers)),
		filler: filler,
	}, nil
}

// Hash returns a salted bcrypt hash of plaintext
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxLength {
		return "", ErrPasswordTooLong
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a
// mismatch, not an error; the error is only set when no worker slot could
// be acquired before ctx was done.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil, nil
}

// DummyVerify does the work of a Verify against a throwaway hash and
// discards the result. Login uses it when the email is unknown.
func (h *Hasher) DummyVerify(ctx context.Context, plaintext string) error {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.slots.Release(1)

	_ = bcrypt.CompareHashAndPassword(h.filler, []byte(plaintext))
	return nil
}

// NeedsRehash reports whether hash was produced with a different cost than
// the hasher is configured for
func (h *Hasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// Cost is the bcrypt cost new hashes are produced with
func (h *Hasher) Cost() int {
	return h.cost
}
