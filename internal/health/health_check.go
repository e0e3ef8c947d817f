package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/devrev/pairdb/topology/internal/store"
	"go.uber.org/zap"
)

// Checker provides health check endpoints for the topology planner.
type Checker struct {
	topologyStore store.TopologyStore
	topologyCache store.TopologyCache
	logger        *zap.Logger
}

// HealthStatus represents the health status response.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewChecker creates a new health checker.
func NewChecker(topologyStore store.TopologyStore, topologyCache store.TopologyCache, logger *zap.Logger) *Checker {
	return &Checker{
		topologyStore: topologyStore,
		topologyCache: topologyCache,
		logger:        logger,
	}
}

// LivenessHandler handles liveness probe requests.
func (h *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// ReadinessHandler handles readiness probe requests.
func (h *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkTopologyStore(ctx); err != nil {
		h.logger.Error("topology store health check failed", zap.Error(err))
		checks["topology_store"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["topology_store"] = "healthy"
	}

	if err := h.checkTopologyCache(ctx); err != nil {
		h.logger.Error("topology cache health check failed", zap.Error(err))
		checks["topology_cache"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["topology_cache"] = "healthy"
	}

	status := HealthStatus{
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")

	if allHealthy {
		status.Status = "ready"
		w.WriteHeader(http.StatusOK)
	} else {
		status.Status = "not_ready"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}

func (h *Checker) checkTopologyStore(ctx context.Context) error {
	if h.topologyStore == nil {
		return nil
	}
	return h.topologyStore.Ping(ctx)
}

func (h *Checker) checkTopologyCache(ctx context.Context) error {
	if h.topologyCache == nil {
		return nil
	}
	return h.topologyCache.Ping(ctx)
}

// StartHealthServer starts the health check HTTP server.
func StartHealthServer(hc *Checker, port int, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)

	addr := fmt.Sprintf(":%d", port)
	logger.Info("starting health check server", zap.String("address", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
