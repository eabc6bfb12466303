// Package token issues and verifies the signed bearer tokens handed out at
// login.
//
// Tokens are HS256 JWTs carrying a typed claim set. The account id travels
// in the mandatory "aid" claim and is mirrored in "sub". Every token expires;
// secrets are rotated by moving the old secret into PreviousSecrets, where it
// still verifies but never signs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mcoot/lostfound/internal/dependencies/clock"
	"github.com/mcoot/lostfound/internal/model"
)

// Errors
var (
	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// Claims is the claim set carried by every token
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"aid"`
}

// Issued is a freshly signed token and when it stops being valid
type Issued struct {
	Token     string
	ExpiresAt time.Time
}

// Config holds configuration for the issuer
type Config struct {
	Secret          string
	PreviousSecrets []string
	TTL             time.Duration
	Issuer          string
}

// DefaultConfig returns default token configuration. The secret has no
// default.
func DefaultConfig() Config {
	return Config{
		TTL:    24 * time.Hour,
		Issuer: "lostfound",
	}
}

// Issuer signs and verifies tokens
type Issuer struct {
	signingKey []byte
	verifyKeys [][]byte
	ttl        time.Duration
	issuer     string
	clock      clock.Clock
	parser     *jwt.Parser
}

// New creates an Issuer. It fails with ErrMissingSecret when no signing
// secret is set.
func New(cfg Config, clk clock.Clock) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	defaults := DefaultConfig()
	if cfg.TTL == 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %s", cfg.TTL)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaults.Issuer
	}

	keys := [][]byte{[]byte(cfg.Secret)}
	for _, prev := range cfg.PreviousSecrets {
		if prev != "" && prev != cfg.Secret {
			keys = append(keys, []byte(prev))
		}
	}

	return &Issuer{
		signingKey: keys[0],
		verifyKeys: keys,
		ttl:        cfg.TTL,
		issuer:     cfg.Issuer,
		clock:      clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

// TTL returns how long issued tokens stay valid
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token for the given account
func (i *Issuer) Issue(accountID model.AccountID) (Issued, error) {
	if accountID == "" {
		return Issued{}, errors.New("account id is required")
	}

	now := i.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   string(accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		AccountID: string(accountID),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return Issued{}, fmt.Errorf("sign token: %w", err)
	}

	return Issued{Token: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the token's signature against the current and previous
// secrets, then its algorithm, issuer and expiry. Every failure is
// ErrInvalidToken; an expired token is ErrTokenExpired, which wraps it.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	var lastErr error
	for _, key := range i.verifyKeys {
		claims := &Claims{}
		_, err := i.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
			return key, nil
		})
		if err == nil {
			if claims.AccountID == "" {
				return nil, fmt.Errorf("%w: missing account id", ErrInvalidToken)
			}
			return claims, nil
		}
		lastErr = err
		// Only a signature mismatch is worth retrying with an older key
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}

	if errors.Is(lastErr, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidToken, lastErr)
}
