package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/mockbetter/internal/matching"
	"github.com/getmockd/mockbetter/internal/storage"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/metrics"
)

// shutdownTimeout bounds a graceful Stop.
const shutdownTimeout = 5 * time.Second

// Server is the mock server: one listener for mock and admin traffic and an
// optional listener for metrics and health probes.
type Server struct {
	cfg        *config.ServerConfiguration
	store      *storage.MemoryStore
	dispatcher *Dispatcher
	handler    *Handler
	chain      *MiddlewareChain
	metrics    *metrics.Metrics
	log        *slog.Logger
	seed       *jsonvalue.Value
	tracing    bool

	httpServer    *http.Server
	metricsServer *http.Server
	listener      net.Listener
	metricsLn     net.Listener

	mu        sync.RWMutex
	running   bool
	startTime time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSeed sets a document merged over the factory defaults at startup and
// after every reset.
func WithSeed(seed *jsonvalue.Value) ServerOption {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithMetrics sets the metrics collectors. NewServer creates its own when
// this option is not given.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTracing enables or disables OpenTelemetry request instrumentation.
func WithTracing(enabled bool) ServerOption {
	return func(s *Server) {
		s.tracing = enabled
	}
}

// NewServer creates a new Server. A nil cfg uses DefaultServerConfiguration.
func NewServer(cfg *config.ServerConfiguration, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}

	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		tracing: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	store, err := storage.NewMemoryStore(
		storage.WithPrefix(cfg.Prefix),
		storage.WithSeed(s.seed),
		storage.WithMatcher(matching.NewMatcher()),
		storage.WithLogger(s.log.With("component", "storage")),
	)
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	s.store = store

	if err := s.metrics.ObserveTenants(store.TenantCount); err != nil {
		return nil, fmt.Errorf("register tenants gauge: %w", err)
	}

	s.dispatcher = NewDispatcher(store,
		WithDispatcherLogger(s.log),
		WithDispatcherMetrics(s.metrics),
	)
	s.handler = NewHandler(s.dispatcher,
		WithMaxBodySize(cfg.MaxBodySize),
		WithHandlerLogger(s.log),
		WithHandlerMetrics(s.metrics),
	)
	s.chain = NewMiddlewareChain(
		WithChainMetrics(s.metrics),
		WithChainLogger(s.log),
		WithChainTracing(s.tracing),
	)
	return s, nil
}

// Start binds the listeners and begins serving in the background.
// Port 0 binds an ephemeral port; see Addr.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	//nolint:gosec // G102: binding to all interfaces is intentional for mock server
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.HTTPPort))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", s.cfg.HTTPPort, err)
	}

	var metricsLn net.Listener
	if s.cfg.MetricsListen != "" {
		metricsLn, err = net.Listen("tcp", s.cfg.MetricsListen)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen on metrics address %s: %w", s.cfg.MetricsListen, err)
		}
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}
	s.listener = ln

	s.log.Info("starting HTTP server", "addr", ln.Addr().String(), "prefix", s.store.Prefix())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	if metricsLn != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		mux.HandleFunc("/healthz", s.handleHealth)
		s.metricsServer = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.metricsLn = metricsLn

		s.log.Info("starting metrics server", "addr", metricsLn.Addr().String())
		go func() {
			if err := s.metricsServer.Serve(metricsLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.Error("metrics server error", "error", err)
			}
		}()
	}

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	httpServer, metricsServer := s.httpServer, s.metricsServer
	s.running = false
	s.httpServer, s.metricsServer = nil, nil
	s.listener, s.metricsLn = nil, nil
	s.mu.Unlock()

	// In-flight handlers may take s.mu, so shut down without holding it.
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
		}
	}

	s.log.Info("server stopped")
	return errors.Join(errs...)
}

// Addr returns the address of the mock listener, or "" when not running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the address of the metrics listener, or "" when it is
// not running.
func (s *Server) MetricsAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.metricsLn == nil {
		return ""
	}
	return s.metricsLn.Addr().String()
}

// Handler returns the fully wrapped HTTP handler for mock and admin traffic.
func (s *Server) Handler() http.Handler {
	return s.chain.Wrap(s.handler)
}

// Dispatcher returns the request dispatcher.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Store returns the state store.
func (s *Server) Store() *storage.MemoryStore {
	return s.store
}

// Metrics returns the server's metrics collectors.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime in seconds, 0 when not running.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}
