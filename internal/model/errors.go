package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")

	// Item errors
	ErrItemNotFound    = errors.New("item not found")
	ErrDuplicateItem   = errors.New("item already exists")
	ErrUnknownReporter = errors.New("reporter account does not exist")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timed out")
)
