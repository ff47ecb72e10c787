package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"prodash/internal/identity"
	applog "prodash/internal/log"
	"prodash/internal/middleware/ratelimit"
	"prodash/internal/middleware/security"
	"prodash/internal/middleware/trace"
	"prodash/internal/services"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to the application.
type Options struct {
	Services *services.Services
	Identity *identity.Service
	// Store is checked by the readiness probe.
	Store  Pinger
	Logger *applog.Logger

	// RateLimitPerMinute bounds mutating requests per client IP.
	RateLimitPerMinute int
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

type Server struct {
	http.Server

	svc    *services.Services
	auth   *identity.Service
	store  Pinger
	logger *applog.Logger
	errors *applog.StructuredLogger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	metrics          *appMetrics

	secureCookies bool
	startedAt     time.Time
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		svc:              opts.Services,
		auth:             opts.Identity,
		store:            opts.Store,
		logger:           logger,
		errors:           applog.NewStructuredLogger(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		metrics:          newAppMetrics(),
		secureCookies:    opts.SecureCookies,
		startedAt:        time.Now(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger, s.metrics.observe)

	mux := http.NewServeMux()
	s.routes(mux)

	// Outermost first. The trace middleware must hand its own request to
	// the mux, so nothing below it may replace the request.
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, isSafeRequest, s.onRateLimited)(handler)
	handler = s.securityDetector.Middleware(s.onSuspicious)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Chat replies wait on the assistant backend.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	// Ops
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.handler())

	// Identity
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/me", s.handleMe)
	mux.HandleFunc("GET /api/admin/users", s.requireAdmin(s.handleListUsers))

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.requireSession(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.requireSession(s.handleCreateTask))
	mux.HandleFunc("GET /api/tasks/{id}", s.requireSession(s.handleGetTask))
	mux.HandleFunc("PATCH /api/tasks/{id}", s.requireSession(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireSession(s.handleDeleteTask))

	// Projects
	mux.HandleFunc("GET /api/projects", s.requireSession(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.requireSession(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.requireSession(s.handleGetProject))
	mux.HandleFunc("PATCH /api/projects/{id}", s.requireSession(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.requireSession(s.handleDeleteProject))

	// Jobs
	mux.HandleFunc("GET /api/jobs", s.requireSession(s.handleListJobs))
	mux.HandleFunc("POST /api/jobs", s.requireSession(s.handleCreateJob))
	mux.HandleFunc("GET /api/jobs/{id}", s.requireSession(s.handleGetJob))
	mux.HandleFunc("PATCH /api/jobs/{id}", s.requireSession(s.handleUpdateJob))
	mux.HandleFunc("DELETE /api/jobs/{id}", s.requireSession(s.handleDeleteJob))
	mux.HandleFunc("POST /api/jobs/{id}/advance", s.requireSession(s.handleAdvanceJob))

	// Habits
	mux.HandleFunc("GET /api/habits", s.requireSession(s.handleListHabits))
	mux.HandleFunc("POST /api/habits", s.requireSession(s.handleCreateHabit))
	mux.HandleFunc("GET /api/habits/{id}", s.requireSession(s.handleGetHabit))
	mux.HandleFunc("PATCH /api/habits/{id}", s.requireSession(s.handleUpdateHabit))
	mux.HandleFunc("DELETE /api/habits/{id}", s.requireSession(s.handleDeleteHabit))
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.requireSession(s.handleToggleHabit))

	// Budget
	mux.HandleFunc("GET /api/budget", s.requireSession(s.handleListBudget))
	mux.HandleFunc("POST /api/budget", s.requireSession(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budget/summary", s.requireSession(s.handleBudgetSummary))
	mux.HandleFunc("GET /api/budget/{id}", s.requireSession(s.handleGetBudget))
	mux.HandleFunc("PATCH /api/budget/{id}", s.requireSession(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budget/{id}", s.requireSession(s.handleDeleteBudget))

	// Chat
	mux.HandleFunc("GET /api/chat", s.requireSession(s.handleChatHistory))
	mux.HandleFunc("POST /api/chat", s.requireSession(s.handleChatSend))
	mux.HandleFunc("DELETE /api/chat", s.requireSession(s.handleChatClear))

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", s.requireSession(s.handleDashboard))
}

// isSafeRequest exempts reads and probes from rate limiting.
func isSafeRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.rateLimitHits.Inc()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

func (s *Server) onSuspicious(r *http.Request) {
	s.metrics.suspicious.Inc()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request detected",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldUserAgent, r.Header.Get("User-Agent"))
}

func requestIDFrom(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
