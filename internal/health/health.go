package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/newsdesk/pkg/logger"
)

// Checker is a dependency that can report its health
type Checker interface {
	Health() error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func() error

func (f CheckerFunc) Health() error {
	return f()
}

// StatusFunc reports informational state that never affects readiness
type StatusFunc func() any

// Server provides health check HTTP endpoints for K8s
type Server struct {
	server    *http.Server
	checks    map[string]Checker
	statuses  map[string]StatusFunc
	checksMu  sync.RWMutex
	ready     bool
	readyMu   sync.RWMutex
	startTime time.Time
	watched   func() int
}

// HealthStatus represents system health
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
	Details   map[string]any    `json:"details,omitempty"`
}

// ReadinessStatus represents system readiness
type ReadinessStatus struct {
	Ready     bool              `json:"ready"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Details   map[string]any    `json:"details,omitempty"`
	Watchlist int               `json:"watchlist"`
}

// NewServer creates new health check server. watched reports the current
// watchlist size and may be nil.
func NewServer(port string, watched func() int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		server: &http.Server{
			Addr:         ":" + port,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		checks:    make(map[string]Checker),
		statuses:  make(map[string]StatusFunc),
		startTime: time.Now(),
		watched:   watched,
	}

	mux.HandleFunc("/health", s.handleHealth)    // Liveness probe
	mux.HandleFunc("/ready", s.handleReadiness)  // Readiness probe
	mux.HandleFunc("/healthz", s.handleHealth)   // Alias
	mux.HandleFunc("/readyz", s.handleReadiness) // Alias

	return s
}

// AddCheck registers a dependency consulted by readiness
func (s *Server) AddCheck(name string, checker Checker) {
	s.checksMu.Lock()
	defer s.checksMu.Unlock()
	s.checks[name] = checker
}

// AddStatus registers state reported alongside the checks
func (s *Server) AddStatus(name string, fn StatusFunc) {
	s.checksMu.Lock()
	defer s.checksMu.Unlock()
	s.statuses[name] = fn
}

// Handler returns the probe handler
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the health check server
func (s *Server) Start() error {
	logger.Info("health check server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping health check server...")
	return s.server.Shutdown(ctx)
}

// SetReady marks the service as ready
func (s *Server) SetReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready

	if ready {
		logger.Info("service marked as READY")
	} else {
		logger.Warn("service marked as NOT READY")
	}
}

// runChecks returns per-dependency status and whether all are healthy
func (s *Server) runChecks() (map[string]string, bool) {
	s.checksMu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = s.checks[name]
	}
	s.checksMu.RUnlock()

	results := make(map[string]string, len(names))
	allHealthy := true
	for i, name := range names {
		if err := checkers[i].Health(); err != nil {
			results[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			results[name] = "healthy"
		}
	}
	return results, allHealthy
}

func (s *Server) details() map[string]any {
	s.checksMu.RLock()
	defer s.checksMu.RUnlock()

	if len(s.statuses) == 0 {
		return nil
	}
	out := make(map[string]any, len(s.statuses))
	for name, fn := range s.statuses {
		out[name] = fn()
	}
	return out
}

// handleHealth handles liveness probe - /health
// Returns 200 if process is alive (even if dependencies are down)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}

	if r.URL.Query().Get("verbose") == "true" {
		status.Checks, _ = s.runChecks()
		status.Details = s.details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// handleReadiness handles readiness probe - /ready
// Returns 200 only if service is ready to accept traffic
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.readyMu.RLock()
	ready := s.ready
	s.readyMu.RUnlock()

	checks, allHealthy := s.runChecks()
	isReady := ready && allHealthy

	status := ReadinessStatus{
		Ready:     isReady,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Details:   s.details(),
	}
	if s.watched != nil {
		status.Watchlist = s.watched()
	}

	w.Header().Set("Content-Type", "application/json")

	if isReady {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}
