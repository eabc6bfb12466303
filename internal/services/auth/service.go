// Package auth composes the credential store, password hasher and token
// issuer into the signup, login and credential rotation flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/mcoot/lostfound/internal/dependencies/clock"
	"github.com/mcoot/lostfound/internal/dependencies/random"
	"github.com/mcoot/lostfound/internal/metrics"
	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/password"
	"github.com/mcoot/lostfound/internal/services/token"
	"github.com/mcoot/lostfound/internal/storage"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password so callers cannot tell the two apart
var ErrInvalidCredentials = errors.New("invalid credentials")

// Config holds configuration for the auth service
type Config struct {
	// OperationTimeout bounds each store and hash call
	OperationTimeout time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		OperationTimeout: 5 * time.Second,
	}
}

// Service handles account creation, login and password changes
type Service struct {
	storage storage.Storage
	hasher  *password.Hasher
	tokens  *token.Issuer
	clock   clock.Clock
	ids     random.Source
	metrics metrics.Recorder
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a new auth Service
func New(
	storage storage.Storage,
	hasher *password.Hasher,
	tokens *token.Issuer,
	clock clock.Clock,
	ids random.Source,
	cfg Config,
	recorder metrics.Recorder,
	logger *slog.Logger,
) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultConfig().OperationTimeout
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		storage: storage,
		hasher:  hasher,
		tokens:  tokens,
		clock:   clock,
		ids:     ids,
		metrics: recorder,
		logger:  logger,
		timeout: cfg.OperationTimeout,
	}
}

// SignupInput is the data needed to create an account
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// Validate checks the input fields
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(1, password.MaxLength)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
	)
}

// LoginInput is the data needed to log in
type LoginInput struct {
	Email    string
	Password string
}

// Validate checks the input fields
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// ChangePasswordInput is the data needed to rotate a password
type ChangePasswordInput struct {
	Current string
	New     string
}

// Validate checks the input fields
func (in ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Current, validation.Required),
		validation.Field(&in.New, validation.Required, validation.Length(1, password.MaxLength)),
	)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

// Signup creates an account with a freshly hashed password
func (s *Service) Signup(ctx context.Context, in SignupInput) (*model.Account, error) {
	in.Email = model.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		s.metrics.RecordSignup(metrics.OutcomeInvalidInput)
		return nil, invalidInput(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	hash, err := s.hash(ctx, in.Password)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, s.mapErr(err)
	}

	now := s.clock.Now()
	account := &model.Account{
		ID:           model.AccountID(s.ids.NewID()),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, model.ErrDuplicateAccount) {
			s.metrics.RecordSignup(metrics.OutcomeDuplicate)
			return nil, model.ErrDuplicateAccount
		}
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, s.mapErr(err)
	}

	s.metrics.RecordSignup(metrics.OutcomeSuccess)
	s.logger.Info("account created", "account_id", account.ID)
	return account, nil
}

// Login checks the credentials and issues a bearer token
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = model.NormalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeInvalidInput)
		return nil, invalidInput(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.GetAccountByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			// Spend the same time as a wrong password would
			if err := s.dummyVerify(ctx, in.Password); err != nil {
				s.metrics.RecordLogin(metrics.OutcomeError)
				return nil, s.mapErr(err)
			}
			s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, s.mapErr(err)
	}

	ok, err := s.verify(ctx, in.Password, account.PasswordHash)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, s.mapErr(err)
	}
	if !ok {
		s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account, in.Password)
	}

	issued, err := s.tokens.Issue(account.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.Info("login succeeded", "account_id", account.ID)
	return &LoginResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Account:   account,
	}, nil
}

// ChangePassword replaces the password of an account after checking the
// current one
func (s *Service) ChangePassword(ctx context.Context, id model.AccountID, in ChangePasswordInput) error {
	if err := in.Validate(); err != nil {
		return invalidInput(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return s.mapErr(err)
	}

	ok, err := s.verify(ctx, in.Current, account.PasswordHash)
	if err != nil {
		return s.mapErr(err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hash(ctx, in.New)
	if err != nil {
		return s.mapErr(err)
	}

	if err := s.storage.UpdatePasswordHash(ctx, id, hash, s.clock.Now()); err != nil {
		return s.mapErr(err)
	}

	s.logger.Info("password changed", "account_id", id)
	return nil
}

// GetAccount returns an account by id
func (s *Service) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return account, nil
}

// ListAccounts returns every account, oldest first
func (s *Service) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	accounts, err := s.storage.ListAccounts(ctx)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return accounts, nil
}

// VerifyToken checks a bearer token and returns its claims
func (s *Service) VerifyToken(tokenString string) (*token.Claims, error) {
	return s.tokens.Verify(tokenString)
}

// rehash upgrades a stored hash to the current cost. Failure is logged and
// otherwise ignored; the old hash still works.
func (s *Service) rehash(ctx context.Context, account *model.Account, plaintext string) {
	hash, err := s.hash(ctx, plaintext)
	if err == nil {
		err = s.storage.UpdatePasswordHash(ctx, account.ID, hash, s.clock.Now())
	}
	if err != nil {
		s.logger.Warn("password rehash failed", "account_id", account.ID, "error", err)
		return
	}
	account.PasswordHash = hash
}

func (s *Service) hash(ctx context.Context, plaintext string) (string, error) {
	start := time.Now()
	defer func() { s.metrics.RecordHashDuration("hash", time.Since(start)) }()
	return s.hasher.Hash(ctx, plaintext)
}

func (s *Service) verify(ctx context.Context, plaintext, hash string) (bool, error) {
	start := time.Now()
	defer func() { s.metrics.RecordHashDuration("verify", time.Since(start)) }()
	return s.hasher.Verify(ctx, plaintext, hash)
}

func (s *Service) dummyVerify(ctx context.Context, plaintext string) error {
	start := time.Now()
	defer func() { s.metrics.RecordHashDuration("verify", time.Since(start)) }()
	return s.hasher.DummyVerify(ctx, plaintext)
}

// mapErr turns an exceeded operation deadline into model.ErrTimeout and
// logs store failures. Other errors pass through.
func (s *Service) mapErr(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("operation timed out", "error", err)
		return fmt.Errorf("%w: %w", model.ErrTimeout, err)
	case errors.Is(err, model.ErrStoreUnavailable):
		s.logger.Error("store unavailable", "error", err)
	}
	return err
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
}
