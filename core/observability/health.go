package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/coursebot/core/logger"
)

// HealthStatus is the result of a single check or of the whole server.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const defaultCheckTimeout = 2 * time.Second

// HealthCheck is one entry of the /health response.
type HealthCheck struct {
	Name     string       `json:"name"`
	Status   HealthStatus `json:"status"`
	Message  string       `json:"message,omitempty"`
	Duration string       `json:"duration"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  HealthStatus  `json:"status"`
	Checks  []HealthCheck `json:"checks"`
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
}

// CheckFunc reports nil when the dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthServer serves /health, /ready and /metrics.
type HealthServer struct {
	addr      string
	version   string
	registry  *prometheus.Registry
	startTime time.Time
	timeout   time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
	server *http.Server
}

// NewHealthServer creates a server listening on addr. A nil registry
// serves the Prometheus default registry.
func NewHealthServer(addr, version string, registry *prometheus.Registry) *HealthServer {
	return &HealthServer{
		addr:      addr,
		version:   version,
		registry:  registry,
		startTime: time.Now(),
		timeout:   defaultCheckTimeout,
		checks:    make(map[string]CheckFunc),
	}
}

// AddCheck registers a named dependency check.
func (hs *HealthServer) AddCheck(name string, fn CheckFunc) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.checks[name] = fn
}

// Handler returns the HTTP routes without starting a listener.
func (hs *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.healthHandler)
	mux.HandleFunc("/ready", hs.healthHandler)
	if hs.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(hs.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

// Start listens in the background. Listen errors are returned synchronously.
func (hs *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", hs.addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: hs.Handler(), ReadHeaderTimeout: 5 * time.Second}
	hs.mu.Lock()
	hs.server = srv
	hs.mu.Unlock()

	logger.LogEvent(ctx, logger.Obs, slog.LevelInfo, "obs.listen",
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogEvent(context.Background(), logger.Obs, slog.LevelError, "obs.serve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops the listener.
func (hs *HealthServer) Shutdown(ctx context.Context) error {
	hs.mu.RLock()
	srv := hs.server
	hs.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hs.timeout)
	defer cancel()

	hs.mu.RLock()
	names := make([]string, 0, len(hs.checks))
	for name := range hs.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(hs.checks))
	for k, v := range hs.checks {
		checks[k] = v
	}
	hs.mu.RUnlock()
	sort.Strings(names)

	resp := HealthResponse{
		Status:  HealthStatusHealthy,
		Version: hs.version,
		Uptime:  time.Since(hs.startTime).Round(time.Second).String(),
		Checks:  make([]HealthCheck, 0, len(names)),
	}
	for _, name := range names {
		start := time.Now()
		check := HealthCheck{Name: name, Status: HealthStatusHealthy}
		if err := checks[name](ctx); err != nil {
			check.Status = HealthStatusUnhealthy
			check.Message = logger.SanitizeLimit(err.Error(), 256)
			resp.Status = HealthStatusUnhealthy
		}
		check.Duration = logger.Took(start).String()
		resp.Checks = append(resp.Checks, check)
	}

	code := http.StatusOK
	if resp.Status != HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
