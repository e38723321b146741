package monitoring

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot is the health payload the core exposes to its callers.
type Snapshot struct {
	SuccessRate  float64      `json:"success_rate"`
	CacheStats   any          `json:"cache_stats"`
	CircuitState string       `json:"circuit_state"`
	RecentErrors []ErrorCount `json:"recent_errors"`
}

// SnapshotFunc produces the current health snapshot on demand.
type SnapshotFunc func() Snapshot

type HealthServer struct {
	monitor  *Monitor
	snapshot SnapshotFunc
	port     string
}

func NewHealthServer(monitor *Monitor, snapshot SnapshotFunc, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}
	return &HealthServer{
		monitor:  monitor,
		snapshot: snapshot,
		port:     port,
	}
}

func (h *HealthServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.healthHandler)
	mux.HandleFunc("/status", h.statusHandler)
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("Health check server starting on port %s", h.port)
	go func() {
		if err := http.ListenAndServe(":"+h.port, mux); err != nil {
			log.Printf("Health server error: %v", err)
		}
	}()
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()

	w.Header().Set("Content-Type", "application/json")
	// An open circuit means degraded, not down: fallback tiers still
	// serve results, so only report unavailable when nothing succeeds.
	if snap.SuccessRate == 0 && h.monitor.GetMetrics().Total > 10 {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("Failed to encode health snapshot: %v", err)
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.monitor.GenerateReport())
}
