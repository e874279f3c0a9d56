// Package health serves liveness, readiness and status endpoints next to the
// Prometheus handler.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nakshatra-tomar/docmeta/internal/metrics"
)

// readyAfter is how long a service that has not processed anything yet
// reports itself as starting.
const readyAfter = 30 * time.Second

// HealthChecker exposes /health, /ready, /status and the Prometheus endpoint.
type HealthChecker struct {
	service   string
	version   string
	collector *metrics.Collector
	logger    *logrus.Logger
	check     func() error
	fields    map[string]StatusFunc
}

// StatusFunc supplies one extra entry of the /status payload.
type StatusFunc func(ctx context.Context) (interface{}, error)

// HealthStatus is the payload returned by /health.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Service   string                 `json:"service"`
	Metrics   map[string]interface{} `json:"metrics"`
}

// NewHealthChecker wires a HealthChecker for the given collector.
func NewHealthChecker(service, version string, collector *metrics.Collector, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{service: service, version: version, collector: collector, logger: logger}
}

// WithReadinessCheck makes /ready fail while check returns an error, e.g. a
// storage ping.
func (h *HealthChecker) WithReadinessCheck(check func() error) *HealthChecker {
	h.check = check
	return h
}

// WithStatusField adds key to /status, filled by fn on every request. A
// failing fn is reported under key+"_error".
func (h *HealthChecker) WithStatusField(key string, fn StatusFunc) *HealthChecker {
	if h.fields == nil {
		h.fields = make(map[string]StatusFunc)
	}
	h.fields[key] = fn
	return h
}

// Routes builds the HTTP handler. metricsPath defaults to /metrics.
func (h *HealthChecker) Routes(metricsPath string) http.Handler {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/ready", h.readinessHandler)
	mux.HandleFunc("/status", h.statusHandler)
	mux.Handle(metricsPath, h.collector.Handler())
	return mux
}

// StartHealthServer runs the HTTP server until ctx is cancelled.
func (h *HealthChecker) StartHealthServer(ctx context.Context, port, metricsPath string) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h.Routes(metricsPath),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	h.logger.WithField("port", port).Info("starting health server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.WithError(err).Error("health server shutdown error")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.WithError(err).Error("health server failed")
	}
}

func (h *HealthChecker) healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := h.collector.Stats()
	h.writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Service:   h.service,
		Uptime:    stats.Uptime().String(),
		Metrics:   stats.Snapshot(),
	})
}

// readinessHandler distinguishes "alive" from "ready to serve traffic".
func (h *HealthChecker) readinessHandler(w http.ResponseWriter, _ *http.Request) {
	stats := h.collector.Stats()
	processed := stats.ProcessedCount()
	uptime := stats.Uptime()

	if h.check != nil {
		if err := h.check(); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"uptime": uptime.String(),
				"reason": err.Error(),
			})
			return
		}
	}

	if processed > 0 || uptime > readyAfter {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "ready",
			"processed_count": processed,
			"uptime":          uptime.String(),
		})
		return
	}

	h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"status": "not ready",
		"uptime": uptime.String(),
		"reason": "service still starting up",
	})
}

func (h *HealthChecker) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := h.collector.Stats().Snapshot()
	for key, fn := range h.fields {
		v, err := fn(r.Context())
		if err != nil {
			h.logger.WithError(err).WithField("field", key).Warn("status field unavailable")
			status[key+"_error"] = err.Error()
			continue
		}
		status[key] = v
	}
	status["service"] = h.service
	status["version"] = h.version
	status["status"] = "running"
	h.writeJSON(w, http.StatusOK, status)
}

func (h *HealthChecker) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("encode health response")
	}
}
