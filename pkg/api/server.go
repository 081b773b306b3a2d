// Package api serves translated graphs, the viewer page and on-demand
// translation over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	gql "github.com/graphql-go/graphql"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/api/middleware"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/graphql"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/health"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/live"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/viewer"
)

// graphqlBodyLimit caps GraphQL request bodies independently of uploads.
const graphqlBodyLimit = 1 << 20

// Server represents the HTTP API server
type Server struct {
	cfg        Config
	store      *GraphStore
	translator *translate.Translator
	schema     gql.Schema
	hub        *live.Hub
	health     *health.HealthChecker
	metrics    *metrics.Registry
	logger     logging.Logger
	limiter    *middleware.RateLimiter
	clientID   middleware.ClientIDFunc
	startTime  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHub sets the live-reload hub. Without one the server creates its own.
func WithHub(h *live.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithHealth sets the health checker. Without one the server registers an
// output directory readiness check on a fresh checker.
func WithHealth(hc *health.HealthChecker) Option {
	return func(s *Server) { s.health = hc }
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new API server over store. Uploads posted to
// /api/translate are translated with translator and saved to its output
// directory on request.
func NewServer(cfg Config, store *GraphStore, translator *translate.Translator, opts ...Option) (*Server, error) {
	cfg.applyDefaults()
	s := &Server{
		cfg:        cfg,
		store:      store,
		translator: translator,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger).With(logging.Component("api"))
	if s.metrics == nil {
		s.metrics = metrics.DefaultRegistry()
	}
	if s.hub == nil {
		s.hub = live.NewHub(live.NewBroker(), cfg.AllowedOrigins, s.metrics, s.logger)
	}
	if s.health == nil {
		s.health = health.NewHealthChecker()
		s.health.RegisterReadinessCheck("output_dir", health.DirectoryCheck("output_dir", store.Dir()))
		s.health.RegisterLivenessCheck("api", health.SimpleCheck("api"))
	}

	schema, err := graphql.NewSchema(store, cfg.Variant, cfg.GraphQLLimits)
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}
	s.schema = schema

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	s.clientID = middleware.ClientIP(proxies)
	if cfg.TranslateRate > 0 {
		s.limiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: cfg.TranslateRate,
			BurstSize:         cfg.TranslateBurst,
			CleanupInterval:   5 * time.Minute,
			ClientExpiration:  10 * time.Minute,
			MaxClients:        10000,
		}, s.logger)
	}
	return s, nil
}

// Hub is the live-reload hub the server publishes to.
func (s *Server) Hub() *live.Hub { return s.hub }

// Store is the graph store the server reads.
func (s *Server) Store() *GraphStore { return s.store }

// Close stops background work and disconnects live clients.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	s.hub.Broker().Shutdown()
}

// Handler builds the router with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.SecurityHeaders(&middleware.SecurityHeadersConfig{
			TLSEnabled:    s.cfg.TLSEnabled,
			ScriptSources: []string{viewer.ScriptOrigin},
		}),
		middleware.CORS(s.cfg.AllowedOrigins),
		middleware.Metrics(s.metrics),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Viewer
	r.Get("/", viewer.Handler(s.cfg.DefaultGraph, s.cfg.Variant, true))
	r.Handle("/static/*", viewer.Static("/static/"))

	// Health and metrics
	r.Get("/health", s.health.HTTPHandler())
	r.Get("/health/ready", s.health.ReadinessHandler())
	r.Get("/health/live", s.health.LivenessHandler())
	r.Get("/metrics", s.handleMetrics)

	// Live reload
	r.Get("/ws", s.hub.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleInfo)
		r.Get("/style", s.handleStyle)
		r.Get("/graphs", s.handleListGraphs)
		r.Route("/graphs/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetGraph)
			r.Get("/stats", s.handleGraphStats)
			r.Get("/layout", s.handleGraphLayout)
		})

		upload := []func(http.Handler) http.Handler{middleware.BodySizeLimit(s.cfg.MaxBodyBytes)}
		if s.limiter != nil {
			upload = append(upload, middleware.RateLimit(s.limiter, s.clientID))
		}
		r.With(upload...).Post("/translate", s.handleTranslate)
	})

	gqlHandler := graphql.NewHandler(s.schema, s.cfg.GraphQLMaxDepth, s.logger)
	r.With(middleware.BodySizeLimit(graphqlBodyLimit)).Handle("/graphql", gqlHandler)

	return r
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.UpdateSystemMetrics(s.startTime)
	s.metrics.Handler().ServeHTTP(w, r)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, InfoResponse{
		Service:   "astra",
		Version:   s.cfg.Version,
		Variant:   s.cfg.Variant,
		OutputDir: s.store.Dir(),
		Graphs:    s.store.Cached(),
		Clients:   s.hub.Broker().Subscribers(live.TopicAll),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		StartedAt: s.startTime.UTC(),
	})
}
