package handlers

import (
	"net/http"
	"runtime"

	"dicom-viewer/internal/indexer"
	"dicom-viewer/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`

	// Last scan of the primary corpus
	LastScanFiles    int64  `json:"lastScanFiles"`
	LastScanIndexed  int64  `json:"lastScanIndexed"`
	LastScanDuration string `json:"lastScanDuration,omitempty"`

	// Per corpus, primary first
	Corpora []indexer.CorpusStatus `json:"corpora"`

	// Scan backpressure, reported when a memory limit is in force
	MemoryPaused     bool    `json:"memoryPaused"`
	MemoryUsage      float64 `json:"memoryUsage,omitempty"`
	MemoryLimitBytes int64   `json:"memoryLimitBytes,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	// Stats summary
	Studies      int `json:"studies"`
	Series       int `json:"series"`
	Images       int `json:"images"`
	Comments     int `json:"comments,omitempty"`
	Descriptions int `json:"descriptions,omitempty"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	healthStatus := h.indexer.GetHealthStatus()
	stats := h.db.GetStats()

	response := HealthResponse{
		Ready:           healthStatus.Ready,
		Version:         startup.Version,
		Uptime:          healthStatus.Uptime,
		Indexing:        healthStatus.Indexing,
		LastScanFiles:   healthStatus.LastScan.FilesSeen,
		LastScanIndexed: healthStatus.LastScan.Indexed,
		Corpora:         healthStatus.Corpora,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
		Studies:         healthStatus.Index.Studies,
		Series:          healthStatus.Index.Series,
		Images:          healthStatus.Index.Images,
		Comments:        stats.Comments,
		Descriptions:    stats.Descriptions,
	}

	if healthStatus.LastScan.Duration > 0 {
		response.LastScanDuration = healthStatus.LastScan.Duration.String()
	}

	if mem := healthStatus.Memory; mem != nil {
		response.MemoryPaused = mem.Paused
		response.MemoryUsage = mem.Usage
		response.MemoryLimitBytes = mem.LimitBytes
	}

	if healthStatus.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if !healthStatus.LastIndexed.IsZero() {
		response.LastIndexed = healthStatus.LastIndexed.Format("2006-01-02T15:04:05Z07:00")
	}

	if healthStatus.InitialIndexError != "" {
		response.InitialIndexError = healthStatus.InitialIndexError
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !healthStatus.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.indexer.IsReady() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}
