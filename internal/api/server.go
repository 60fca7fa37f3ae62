// Package api serves the local REST and WebSocket interface of the worker.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/handlers"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/api/websocket"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/metrics"
	"github.com/ramonehamilton/mtga-ratings-sync/internal/worker"
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int
	origins    []string
	logger     *slog.Logger

	wsHub    *websocket.Hub
	registry *prometheus.Registry

	worker  handlers.Worker
	config  handlers.ConfigSource
	metrics *metrics.SyncMetrics
	faults  *worker.Faults
}

// Options holds the dependencies of the API server.
type Options struct {
	Port           int
	AllowedOrigins []string

	Worker  handlers.Worker
	Config  handlers.ConfigSource
	Metrics *metrics.SyncMetrics // optional; /metrics is empty without it

	// Faults mounts the fault injection routes when set.
	Faults *worker.Faults

	Logger *slog.Logger
}

// NewServer creates a new API server.
func NewServer(opts Options) (*Server, error) {
	if opts.Worker == nil {
		return nil, errors.New("api: worker is required")
	}
	if opts.Config == nil {
		return nil, errors.New("api: config source is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	if opts.Metrics != nil {
		if err := registry.Register(opts.Metrics); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	s := &Server{
		router:   chi.NewRouter(),
		port:     opts.Port,
		origins:  opts.AllowedOrigins,
		logger:   opts.Logger,
		wsHub:    websocket.NewHub(opts.Logger, opts.AllowedOrigins),
		registry: registry,
		worker:   opts.Worker,
		config:   opts.Config,
		metrics:  opts.Metrics,
		faults:   opts.Faults,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(jsonContentTypeMiddleware)
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.port, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	go s.wsHub.Run()
	defer s.wsHub.Stop()

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", listener.Addr().String())
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WebSocketHub returns the hub streaming worker signals.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}

// NewWebSocketObserver creates an observer that forwards worker signals to
// the WebSocket clients. Register it with the worker's dispatcher.
func (s *Server) NewWebSocketObserver() *websocket.Observer {
	return websocket.NewObserver(s.wsHub)
}
