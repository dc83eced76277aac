package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jguan/model-catalog/pkg/gateway/middleware"
	"github.com/jguan/model-catalog/pkg/infra/metrics"
	"github.com/jguan/model-catalog/pkg/infra/ratelimit"
)

const (
	APIPrefix          = "/api/v1"
	DefaultMetricsPath = "/metrics"
)

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	EnableCORS      bool
	CORSConfig      middleware.CORSConfig
	// RateLimitPerMin caps requests per client address; 0 disables it.
	RateLimitPerMin int
	// Gatherer backs the metrics endpoint; nil disables it.
	Gatherer    prometheus.Gatherer
	MetricsPath string
	// Metrics feeds the request summary in /health.
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            "127.0.0.1:8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSConfig:      middleware.DefaultCORSConfig(),
		MetricsPath:     DefaultMetricsPath,
	}
}

type Server struct {
	gateway *Gateway
	config  ServerConfig
	mu      sync.Mutex
	http    *http.Server
	router  *Router
	logger  *slog.Logger
	started time.Time
}

func NewServer(gateway *Gateway, config ServerConfig) *Server {
	defaults := DefaultServerConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.MetricsPath == "" {
		config.MetricsPath = defaults.MetricsPath
	}
	if config.CORSConfig.AllowedOrigins == nil {
		config.CORSConfig = defaults.CORSConfig
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		gateway: gateway,
		config:  config,
		router:  NewRouter(gateway),
		logger:  logger,
		started: time.Now(),
	}
}

// Handler returns the complete HTTP handler: API routes behind the
// middleware chain plus the health and metrics endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(APIPrefix+"/", s.buildAPIHandler())
	mux.HandleFunc("/health", s.handleHealth)
	if s.config.Gatherer != nil {
		mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	return middleware.Recovery(s.logger)(mux)
}

func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", slog.String("addr", s.config.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Server) buildAPIHandler() http.Handler {
	executeHandler := NewHTTPAdapter(s.gateway)
	routerHandler := s.router

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == APIPrefix+"/execute" {
			executeHandler.ServeHTTP(w, r)
			return
		}
		routerHandler.ServeHTTP(w, r)
	})

	if s.config.RateLimitPerMin > 0 {
		perMin := s.config.RateLimitPerMin
		handler = middleware.RateLimit(ratelimit.New(float64(perMin)/60, perMin))(handler)
	}

	// preflight requests must not count against the rate limit
	if s.config.EnableCORS {
		handler = middleware.CORS(s.config.CORSConfig)(handler)
	}

	return middleware.Logging(s.logger)(handler)
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	return nil
}

type HealthStatus struct {
	Status   string                   `json:"status"`
	Uptime   string                   `json:"uptime"`
	Commands int                      `json:"commands"`
	Queries  int                      `json:"queries"`
	Requests *metrics.RequestSnapshot `json:"requests,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSONError(w, http.StatusMethodNotAllowed, ErrCodeInvalidRequest, "method not allowed")
		return
	}

	registry := s.gateway.Registry()
	status := HealthStatus{
		Status:   "healthy",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Commands: registry.CommandCount(),
		Queries:  registry.QueryCount(),
	}
	if s.config.Metrics != nil {
		snap := s.config.Metrics.Snapshot()
		status.Requests = &snap
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) Gateway() *Gateway {
	return s.gateway
}

func (s *Server) Config() ServerConfig {
	return s.config
}

func (s *Server) Router() *Router {
	return s.router
}
