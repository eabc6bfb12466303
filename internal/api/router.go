package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/lostfound/internal/api/apierr"
	"github.com/mcoot/lostfound/internal/api/handler"
	"github.com/mcoot/lostfound/internal/api/middleware"
	"github.com/mcoot/lostfound/internal/api/response"
	"github.com/mcoot/lostfound/internal/metrics"
	"github.com/mcoot/lostfound/internal/services/auth"
	"github.com/mcoot/lostfound/internal/services/items"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	ItemService *items.Service
	Metrics     metrics.Recorder

	// MetricsHandler serves /metrics when set
	MetricsHandler http.Handler
	// RateLimiter guards login and signup when set
	RateLimiter *middleware.RateLimiter
	// HealthCheck backs /health when set
	HealthCheck func(ctx context.Context) error
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}

	// Outermost first
	chain := []mux.MiddlewareFunc{
		middleware.RequestID,
		middleware.Recovery(cfg.Logger),
		middleware.Logging(cfg.Logger, cfg.Metrics),
	}

	r := mux.NewRouter()
	r.Use(chain...)
	// mux does not run r.Use middleware for unmatched requests
	r.NotFoundHandler = wrap(http.HandlerFunc(notFound), chain)
	r.MethodNotAllowedHandler = wrap(http.HandlerFunc(methodNotAllowed), chain)

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AuthService)
	itemHandler := handler.NewItemHandler(cfg.ItemService)

	gate := middleware.Auth(cfg.AuthService, cfg.Logger, cfg.Metrics)
	protected := func(h http.HandlerFunc) http.Handler {
		return gate(h)
	}
	limited := func(route string, h http.HandlerFunc) http.Handler {
		if cfg.RateLimiter == nil {
			return h
		}
		return cfg.RateLimiter.Middleware(route)(h)
	}

	// Account routes. Listing and lookup by id are gated; signup and login
	// are open but rate limited.
	r.Handle("/signup", limited("/signup", accountHandler.Signup)).Methods(http.MethodPost)
	r.Handle("/signup", protected(accountHandler.List)).Methods(http.MethodGet)
	r.Handle("/login", limited("/login", accountHandler.Login)).Methods(http.MethodPost)
	r.Handle("/login/{id}", protected(accountHandler.GetByID)).Methods(http.MethodGet)
	r.Handle("/me", protected(accountHandler.Me)).Methods(http.MethodGet)
	r.Handle("/me/password", protected(accountHandler.ChangePassword)).Methods(http.MethodPut)

	// Item routes. Fixed paths are registered before /{id}.
	itemRoutes := r.PathPrefix("/items").Subrouter()
	itemRoutes.Handle("", protected(itemHandler.Report)).Methods(http.MethodPost)
	itemRoutes.HandleFunc("/lost-items", itemHandler.ListLost).Methods(http.MethodGet)
	itemRoutes.HandleFunc("/found-items", itemHandler.ListFound).Methods(http.MethodGet)
	itemRoutes.HandleFunc("/items", itemHandler.ListAll).Methods(http.MethodGet)
	itemRoutes.HandleFunc("/{id}", itemHandler.Get).Methods(http.MethodGet)

	// Health check and metrics (no auth)
	r.HandleFunc("/health", healthHandler(cfg.HealthCheck, cfg.Logger)).Methods(http.MethodGet)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler).Methods(http.MethodGet)
	}

	return r
}

func wrap(h http.Handler, chain []mux.MiddlewareFunc) http.Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func healthHandler(check func(context.Context) error, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logger.Error("health check failed", slog.String("error", err.Error()))
				response.JSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable"})
				return
			}
		}
		response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusNotFound, apierr.APIError{Code: "NOT_FOUND", Message: "Not found"})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusMethodNotAllowed, apierr.APIError{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"})
}
