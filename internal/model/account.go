package model

import (
	"strings"
	"time"
)

// AccountID uniquely identifies an account across the system
type AccountID string

// Account is a registered user of the lost & found service
type Account struct {
	ID           AccountID
	Email        string // normalized, unique
	Name         string
	PasswordHash string // bcrypt hash, never the plaintext
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail returns the canonical form used for storage and lookup.
// Addresses are trimmed and lower-cased, so "A@X.com" and "a@x.com" name
// the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
