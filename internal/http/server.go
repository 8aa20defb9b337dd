// Package http exposes the engine over a JSON API. Routing uses the
// net/http method patterns; write endpoints sit behind JWT auth and a
// per-client rate limit.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"carteira/internal/auth"
	applog "carteira/internal/log"
	"carteira/internal/services"
)

type Server struct {
	http.Server
	engine      *services.Engine
	tokens      *auth.TokenService
	validate    *validator.Validate
	rateLimiter *rateLimiter
	logs        *applog.Logger
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, engine *services.Engine, tokens *auth.TokenService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		engine:      engine,
		tokens:      tokens,
		validate:    validator.New(),
		rateLimiter: newRateLimiter(),
		logs:        applog.ForComponent(applog.ComponentHTTP),
		started:     time.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/session", s.public(s.handleCreateSession))

	mux.HandleFunc("GET /api/expenses", s.secured(s.handleListExpenses))
	mux.HandleFunc("POST /api/expenses", s.secured(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.secured(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/fixed-expenses", s.secured(s.handleListFixedExpenses))
	mux.HandleFunc("POST /api/fixed-expenses", s.secured(s.handleCreateFixedExpense))
	mux.HandleFunc("PUT /api/fixed-expenses/{id}", s.secured(s.handleUpdateFixedExpense))
	mux.HandleFunc("DELETE /api/fixed-expenses/{id}", s.secured(s.handleDeleteFixedExpense))
	mux.HandleFunc("POST /api/fixed-expenses/{id}/toggle", s.secured(s.handleToggleFixedExpense))

	mux.HandleFunc("GET /api/fixed-incomes", s.secured(s.handleListFixedIncomes))
	mux.HandleFunc("POST /api/fixed-incomes", s.secured(s.handleCreateFixedIncome))
	mux.HandleFunc("PUT /api/fixed-incomes/{id}", s.secured(s.handleUpdateFixedIncome))
	mux.HandleFunc("DELETE /api/fixed-incomes/{id}", s.secured(s.handleDeleteFixedIncome))
	mux.HandleFunc("POST /api/fixed-incomes/{id}/toggle", s.secured(s.handleToggleFixedIncome))

	mux.HandleFunc("GET /api/credit-cards", s.secured(s.handleListCreditCards))
	mux.HandleFunc("POST /api/credit-cards", s.secured(s.handleCreateCreditCard))
	mux.HandleFunc("PUT /api/credit-cards/{id}", s.secured(s.handleUpdateCreditCard))
	mux.HandleFunc("DELETE /api/credit-cards/{id}", s.secured(s.handleDeleteCreditCard))
	mux.HandleFunc("POST /api/credit-cards/{id}/toggle", s.secured(s.handleToggleCreditCard))
	mux.HandleFunc("GET /api/credit-cards/summary", s.secured(s.handleCardsSummary))
	mux.HandleFunc("GET /api/credit-cards/{id}/statement", s.secured(s.handleCardStatement))

	mux.HandleFunc("GET /api/cash-movements", s.secured(s.handleListCashMovements))
	mux.HandleFunc("POST /api/cash-movements", s.secured(s.handleCreateCashMovement))
	mux.HandleFunc("DELETE /api/cash-movements/{id}", s.secured(s.handleDeleteCashMovement))

	mux.HandleFunc("GET /api/investments", s.secured(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", s.secured(s.handleCreateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.secured(s.handleDeleteInvestment))

	mux.HandleFunc("GET /api/users", s.secured(s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.secured(s.handleCreateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.secured(s.handleDeleteUser))

	mux.HandleFunc("GET /api/settings", s.secured(s.handleGetSettings))
	mux.HandleFunc("PUT /api/settings", s.secured(s.handleSaveSettings))

	mux.HandleFunc("GET /api/dashboard", s.secured(s.handleDashboard))
	mux.HandleFunc("GET /api/balance", s.secured(s.handleBalance))
	mux.HandleFunc("GET /api/monthly", s.secured(s.handleMonthly))
	mux.HandleFunc("PUT /api/filter", s.secured(s.handleSetFilter))

	return s
}

// public applies security headers, rate limiting and request logging.
func (s *Server) public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		reqLog := applog.NewStructuredLogger(s.logs.With(applog.FieldRequestID, requestID))
		reqLog.LogHTTPStart(ctx, r, clientIP)

		// Rate limit mutating requests only
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// secured is public plus bearer-token auth; the token's user id lands in the
// request context.
func (s *Server) secured(next http.HandlerFunc) http.HandlerFunc {
	return s.public(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.tokens.ParseToken(token)
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected invalid token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
