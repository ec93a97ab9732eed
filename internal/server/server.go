package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/homestack/toolhub/internal/metrics"
	"github.com/homestack/toolhub/pkg/catalog"
	"github.com/homestack/toolhub/pkg/executor"
	"github.com/homestack/toolhub/pkg/registry"
)

// Options configures the HTTP server.
type Options struct {
	Host string
	Port int
	// RateLimitPerMinute caps execute-endpoint requests per client IP.
	RateLimitPerMinute int
}

// Server is the toolhub HTTP surface: tool listing and export, tool
// execution, admin catalog CRUD, and a websocket feed of execution
// events.
type Server struct {
	options        Options
	server         *http.Server
	registry       *registry.Registry
	store          catalog.Store
	executor       *executor.Executor
	broadcaster    *Broadcaster
	rateLimiter    *RateLimiter
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates the HTTP server.
func NewServer(options Options, reg *registry.Registry, store catalog.Store, exec *executor.Executor, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8080
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 100
	}

	if reg == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}

	return &Server{
		options:     options,
		registry:    reg,
		store:       store,
		executor:    exec,
		broadcaster: NewBroadcaster(logger, m),
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		metrics:     m,
		logger:      logger,
		startTime:   time.Now(),
	}, nil
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/tools", s.wrap(s.handleListTools))
	mux.HandleFunc("POST /v1/tools/execute", s.wrap(s.handleExecute))

	mux.HandleFunc("POST /v1/admin/tools", s.wrap(s.handleCreateTool))
	mux.HandleFunc("GET /v1/admin/tools/{name}", s.wrap(s.handleGetTool))
	mux.HandleFunc("PUT /v1/admin/tools/{name}", s.wrap(s.handleUpdateTool))
	mux.HandleFunc("DELETE /v1/admin/tools/{name}", s.wrap(s.handleDeleteTool))
	mux.HandleFunc("POST /v1/admin/tools/{name}/test", s.wrap(s.handleTestTool))

	mux.HandleFunc("GET /v1/executions/watch", s.handleWatch)

	return mux
}

// Start runs the server until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting toolhub server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down toolhub server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()
	s.broadcaster.CloseAll()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Toolhub server stopped")
	return nil
}

// wrap applies shutdown rejection, in-flight tracking, and request
// metrics to a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		s.shutdownMu.RUnlock()

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if s.metrics != nil {
			s.metrics.HTTPRequestsTotal.WithLabelValues(r.URL.Path, r.Method, fmt.Sprintf("%d", rec.status)).Inc()
		}

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Msg("Request completed")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Seconds(),
		"timestamp": time.Now().UnixMilli(),
	})
}

// getClientIP extracts the client IP, preferring proxy headers.
func (s *Server) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}
