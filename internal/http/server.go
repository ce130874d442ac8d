// Package http serves the nutrihelper JSON API and its two server-rendered
// pages.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applog "nutrihelper/internal/log"
	"nutrihelper/internal/middleware/ratelimit"
	"nutrihelper/internal/middleware/security"
	"nutrihelper/internal/middleware/trace"
	"nutrihelper/internal/services"
	appweb "nutrihelper/web"
)

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	Addr string

	Auth      *services.AuthService
	Entries   *services.EntryService
	Charts    *services.ChartService
	Progress  *services.ProgressService
	Recipes   *services.RecipeService
	Lookup    *services.LookupService
	Dashboard *services.DashboardService

	ReadyChecks []ReadyCheck

	CookieSecure       bool
	CORSOrigins        []string
	RateLimitPerMinute int

	// Registry receives the HTTP collectors and backs /metrics. Nil creates
	// a private registry with the Go and process collectors.
	Registry *prometheus.Registry
	Logger   *applog.Logger
}

type Server struct {
	http.Server
	mux       *http.ServeMux
	templates *template.Template
	logger    *applog.Logger

	auth      *services.AuthService
	entries   *services.EntryService
	charts    *services.ChartService
	progress  *services.ProgressService
	recipes   *services.RecipeService
	lookup    *services.LookupService
	dashboard *services.DashboardService

	readyChecks  []ReadyCheck
	cookieSecure bool

	registry      *prometheus.Registry
	entriesLogged prometheus.Counter
	limiter       *ratelimit.Limiter
	detector      *security.Detector

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Wrap(slog.Default(), applog.ComponentHTTP)
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		auth:         opts.Auth,
		entries:      opts.Entries,
		charts:       opts.Charts,
		progress:     opts.Progress,
		recipes:      opts.Recipes,
		lookup:       opts.Lookup,
		dashboard:    opts.Dashboard,
		readyChecks:  opts.ReadyChecks,
		cookieSecure: opts.CookieSecure,
		registry:     reg,
		detector:     security.NewDetector(reg),
		started:      time.Now(),
	}

	s.entriesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nutrihelper",
		Name:      "food_entries_logged_total",
		Help:      "Food entries accepted by the backend.",
	})
	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nutrihelper",
		Name:      "rate_limited_requests_total",
		Help:      "Requests refused by the per-client rate limit.",
	})
	reg.MustRegister(s.entriesLogged, rateLimited)

	s.limiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		Methods:           []string{http.MethodPost},
		Rejected:          rateLimited,
	})
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "nutrihelper",
		Name:      "rate_limit_clients",
		Help:      "Clients currently tracked by the rate limiter.",
	}, func() float64 { return float64(s.limiter.ActiveClients()) }))

	t, err := template.New("pages").Funcs(template.FuncMap{
		"amount": formatAmount,
		"bar":    barHeight,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	s.routes()

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Slog().Handler(), slog.LevelError),
	}
	return s
}

func (s *Server) routes() {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		s.mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /chart", s.handleChartPage)

	s.api("POST /api/signup", s.handleSignup)
	s.api("POST /api/login", s.handleLogin)
	s.api("POST /api/logout", s.handleLogout)
	s.api("POST /api/forgot-password", s.handleForgotPassword)

	s.api("GET /api/entries", s.withSession(s.handleListEntries))
	s.api("POST /api/entries", s.withSession(s.handleCreateEntry))
	s.api("POST /api/entries/filter", s.withSession(s.handleFilterEntries))

	s.api("GET /api/chart/month", s.withSession(s.handleChartMonth))
	s.api("GET /api/progress/today", s.withSession(s.handleProgressToday))
	s.api("GET /api/dashboard", s.withSession(s.handleDashboard))

	s.api("GET /api/foods/search", s.handleFoodSearch)
	s.api("POST /api/foods/lookup", s.withSession(s.handleFoodLookup))
	s.api("POST /api/foods/add", s.withSession(s.handleAddFood))

	s.api("POST /api/recipes/recommend", s.withSession(s.handleRecommendRecipes))
	s.api("POST /api/recipes/add", s.withSession(s.handleAddRecipe))
	s.api("GET /api/recipes/added", s.withSession(s.handleAddedRecipes))
}

func (s *Server) api(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, security.NoStore(h))
}

// middleware wraps the mux, innermost first: rate limit on POST, gzip,
// CORS, security headers, probe detection, panic recovery, tracing and
// the request logger.
func (s *Server) middleware(opts Options) http.Handler {
	var h http.Handler = s.mux

	h = s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ClientIP(r),
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	})(h)
	h = handlers.CompressHandler(h)

	if len(opts.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(opts.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", trace.HeaderRequestID}),
			handlers.ExposedHeaders([]string{trace.HeaderRequestID}),
			handlers.AllowCredentials(),
		)(h)
	}

	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.logger.Slog().Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(true),
	)(h)

	metrics := trace.NewMetrics(s.registry)
	h = trace.NewMiddleware(trace.Config{
		ExtractIP: s.detector.ClientIP,
		Route: func(r *http.Request) string {
			_, pattern := s.mux.Handler(r)
			return pattern
		},
		Metrics: metrics,
	}).Middleware(h)

	return applog.Middleware(s.logger)(h)
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
