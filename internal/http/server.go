// Package http serves the JSON API. Every /api route except sign-up and
// sign-in acts on the owner carried by the bearer token.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanse/internal/auth"
	"finanse/internal/core"
	applog "finanse/internal/log"
	"finanse/internal/middleware/ratelimit"
	"finanse/internal/middleware/security"
	"finanse/internal/middleware/trace"
	"finanse/internal/services"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call.
type Deps struct {
	Auth          *auth.Service
	Ledger        *services.LedgerService
	Notifications *services.NotificationService
	Dashboard     *services.DashboardService
	Storage       Pinger

	// CategorySeed is what POST /api/categories/defaults adds.
	CategorySeed []core.Category

	Logger *applog.Logger
}

type Server struct {
	http.Server
	deps   Deps
	logger *applog.Logger
	audit  *applog.StructuredLogger

	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type Option func(*serverOptions)

type serverOptions struct {
	rateLimit ratelimit.Config
	headers   security.HeadersConfig
}

// WithRateLimit overrides the limit applied to mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(o *serverOptions) { o.rateLimit = cfg }
}

func WithHeaders(cfg security.HeadersConfig) Option {
	return func(o *serverOptions) { o.headers = cfg }
}

// NewServer wires the routes and middleware and returns a ready-to-run server.
func NewServer(addr string, deps Deps, opts ...Option) *Server {
	o := serverOptions{
		rateLimit: ratelimit.DefaultConfig(),
		headers:   security.DefaultHeadersConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if deps.CategorySeed == nil {
		deps.CategorySeed = services.DefaultCategories
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		deps:             deps,
		logger:           logger,
		audit:            applog.NewStructuredLogger(logger),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(o.rateLimit),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = s.authenticate(mux)
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	handler = security.NewHeadersMiddleware(o.headers).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("GET /api/me", s.handleProfile)
	mux.HandleFunc("PUT /api/me", s.handleUpdateProfile)
	mux.HandleFunc("PUT /api/me/theme", s.handleSetTheme)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("POST /api/categories/cleanup", s.handleCleanupCategories)
	mux.HandleFunc("POST /api/categories/defaults", s.handleSeedCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleReplaceTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/usage", s.handleBudgetUsage)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleReplaceBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/read-all", s.handleMarkAllRead)
	mux.HandleFunc("POST /api/notifications/generate", s.handleGenerateNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.handleMarkRead)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDeleteNotification)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
