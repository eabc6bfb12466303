package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/lostfound/internal/api/apierr"
	"github.com/mcoot/lostfound/internal/metrics"
	"github.com/mcoot/lostfound/internal/model"
	"github.com/mcoot/lostfound/internal/services/token"
)

// TokenVerifier checks bearer tokens
type TokenVerifier interface {
	VerifyToken(tokenString string) (*token.Claims, error)
}

// Identity is the authenticated caller of a request
type Identity struct {
	AccountID model.AccountID
	TokenID   string
	ExpiresAt time.Time
}

type contextKey struct{}

var identityContextKey = contextKey{}

// Auth is the authorization gate. A request without a valid token gets a
// 403 and the wrapped handler is never called. A request with one reaches
// the handler with its Identity in the context.
func Auth(verifier TokenVerifier, logger *slog.Logger, recorder metrics.Recorder) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r)
			if raw == "" {
				recorder.RecordGateDecision(metrics.GateMissing)
				logger.Debug("request rejected", slog.String("path", r.URL.Path), slog.String("reason", "missing token"))
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			claims, err := verifier.VerifyToken(raw)
			if err != nil {
				outcome := metrics.GateInvalid
				if errors.Is(err, token.ErrTokenExpired) {
					outcome = metrics.GateExpired
				}
				recorder.RecordGateDecision(outcome)
				logger.Debug("request rejected",
					slog.String("path", r.URL.Path),
					slog.String("reason", outcome),
					slog.String("error", err.Error()),
				)
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			recorder.RecordGateDecision(metrics.GateAllowed)
			identity := Identity{
				AccountID: model.AccountID(claims.AccountID),
				TokenID:   claims.ID,
			}
			if claims.ExpiresAt != nil {
				identity.ExpiresAt = claims.ExpiresAt.Time
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// extractToken reads the Authorization header. Both a bare token and
// "Bearer <token>" are accepted; the scheme is matched case-insensitively.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(rest)
	}
	return header
}

// WithIdentity returns a copy of ctx carrying identity
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the authenticated identity, if any
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// MustGetIdentity returns the authenticated identity or panics
func MustGetIdentity(ctx context.Context) Identity {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		panic("no identity in context - auth middleware not applied?")
	}
	return identity
}
