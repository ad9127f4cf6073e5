// Package http serves the JSON API: sessions, entries, planning items,
// the balance ledger and the dashboard.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/metrics"
	"budgetbuddy/internal/middleware/ratelimit"
	"budgetbuddy/internal/middleware/security"
	"budgetbuddy/internal/middleware/trace"
	"budgetbuddy/internal/services"
)

// Services are the application services behind the API.
type Services struct {
	Auth      *services.AuthService
	Incomes   *services.IncomeService
	Expenses  *services.ExpenseService
	Goals     *services.GoalService
	Dues      *services.DueService
	Dashboard *services.DashboardService
	Reconcile *services.ReconcileService
	Ledger    *ledger.Maintainer
	// Ready reports whether the storage backend is reachable.
	Ready func(ctx context.Context) error
}

// Options configures the server.
type Options struct {
	Addr               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
	EnableH2C          bool
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
	Logger        *log.Logger
	Metrics       *metrics.Metrics
}

type Server struct {
	http.Server
	svc           Services
	limiter       *ratelimit.Limiter
	detector      *security.Detector
	logger        *log.Logger
	metrics       *metrics.Metrics
	secureCookies bool
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, svc Services) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:           svc,
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:      security.NewDetector(),
		logger:        logger,
		metrics:       opts.Metrics,
		secureCookies: opts.SecureCookies,
	}
	s.detector.OnSuspicious(func(r *http.Request) {
		s.metrics.SecurityEvent("suspicious")
		log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.UserAgent())
	})

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(handler)
	if opts.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	s.Addr = opts.Addr
	s.Handler = handler
	s.ReadTimeout = opts.ReadTimeout
	s.ReadHeaderTimeout = 5 * time.Second
	s.WriteTimeout = opts.WriteTimeout
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "GET /healthz", handleHealth, false)
	s.handle(mux, "GET /readyz", s.handleReady, false)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle(mux, "POST /api/auth/register", s.handleRegister, false)
	s.handle(mux, "POST /api/auth/login", s.handleLogin, false)
	s.handle(mux, "POST /api/auth/logout", s.handleLogout, false)
	s.handle(mux, "GET /api/me", s.handleMe, true)

	s.handle(mux, "GET /api/incomes", s.handleListIncomes, true)
	s.handle(mux, "POST /api/incomes", s.handleCreateIncome, true)
	s.handle(mux, "GET /api/incomes/{id}", s.handleGetIncome, true)
	s.handle(mux, "PUT /api/incomes/{id}", s.handleUpdateIncome, true)
	s.handle(mux, "DELETE /api/incomes/{id}", s.handleDeleteIncome, true)

	s.handle(mux, "GET /api/expenses", s.handleListExpenses, true)
	s.handle(mux, "POST /api/expenses", s.handleCreateExpense, true)
	s.handle(mux, "GET /api/expenses/{id}", s.handleGetExpense, true)
	s.handle(mux, "PUT /api/expenses/{id}", s.handleUpdateExpense, true)
	s.handle(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense, true)
	s.handle(mux, "GET /api/categories", handleCategories, true)

	s.handle(mux, "GET /api/goals", s.handleListGoals, true)
	s.handle(mux, "POST /api/goals", s.handleCreateGoal, true)
	s.handle(mux, "PUT /api/goals/{id}", s.handleUpdateGoal, true)
	s.handle(mux, "DELETE /api/goals/{id}", s.handleDeleteGoal, true)
	s.handle(mux, "POST /api/goals/{id}/accumulate", s.handleAccumulateGoal, true)
	s.handle(mux, "POST /api/goals/{id}/toggle", s.handleToggleGoal, true)

	s.handle(mux, "GET /api/dues", s.handleListDues, true)
	s.handle(mux, "POST /api/dues", s.handleCreateDue, true)
	s.handle(mux, "GET /api/dues/calendar", s.handleDueCalendar, true)
	s.handle(mux, "PUT /api/dues/{id}", s.handleUpdateDue, true)
	s.handle(mux, "DELETE /api/dues/{id}", s.handleDeleteDue, true)
	s.handle(mux, "POST /api/dues/{id}/toggle", s.handleToggleDue, true)

	s.handle(mux, "GET /api/balance", s.handleBalance, true)
	s.handle(mux, "POST /api/balance/reconcile", s.handleReconcile, true)
	s.handle(mux, "GET /api/dashboard", s.handleDashboard, true)
}

// handle registers h under pattern. API routes are rate limited; session
// routes additionally require an authenticated user.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, session bool) {
	if session {
		h = s.requireSession(h)
	}
	var handler http.Handler = h
	if strings.Contains(pattern, " /api/") {
		handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(handler)
	}
	mux.Handle(pattern, s.instrument(pattern, handler))
}

// instrument records request count and latency under the route pattern.
func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	method, route, _ := strings.Cut(pattern, " ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &trace.ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.metrics.ObserveHTTP(method, route, rw.StatusCode, time.Since(start))
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.metrics.SecurityEvent("rate_limited")
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.svc.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
