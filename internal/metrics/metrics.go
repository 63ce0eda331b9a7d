package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Notes database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_db_queries_total",
			Help: "Total number of notes database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_db_query_duration_seconds",
			Help:    "Notes database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	NotesCommentsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_notes_comments",
			Help: "Number of stored comments",
		},
	)

	NotesDescriptionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_notes_descriptions",
			Help: "Number of stored study and series descriptions",
		},
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scan_runs_total",
			Help: "Total number of corpus scans",
		},
		[]string{"corpus", "mode"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_scan_duration_seconds",
			Help:    "Corpus scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"corpus"},
	)

	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scan_errors_total",
			Help: "Total number of scans that ended with an error",
		},
		[]string{"corpus"},
	)

	ScanFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_scan_files_total",
			Help: "Files seen by the scanner, by probe result",
		},
		[]string{"result"}, // "indexed", "not_indexable", "missing_study"
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_scan_workers",
			Help: "Number of probe workers used by the last scan",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_scan_running",
			Help: "Number of scans currently running",
		},
	)

	ScanLastTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_scan_last_timestamp",
			Help: "Unix timestamp of the last completed scan",
		},
		[]string{"corpus"},
	)

	ProbeCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_probe_cache_hits_total",
			Help: "Header probes answered from the probe cache",
		},
	)

	ProbeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_probe_cache_misses_total",
			Help: "Header probes that had to parse the file",
		},
	)

	ProbeCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_probe_cache_entries",
			Help: "Probe outcomes held in the probe cache after the last scan",
		},
	)
)

// Index metrics
var (
	IndexStudies = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_index_studies",
			Help: "Studies in the installed index",
		},
		[]string{"corpus"},
	)

	IndexSeries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_index_series",
			Help: "Series in the installed index",
		},
		[]string{"corpus"},
	)

	IndexImages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_index_images",
			Help: "Slices in the installed index",
		},
		[]string{"corpus"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_memory_usage_ratio",
			Help: "Heap usage as a share of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_memory_paused",
			Help: "1 while scans are paused for memory pressure",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dicom_viewer_memory_pauses_total",
			Help: "Times scans were paused for memory pressure",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_filesystem_operation_errors_total",
			Help: "Filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_filesystem_retry_attempts_total",
			Help: "Retries after stale NFS file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dicom_viewer_filesystem_stale_errors_total",
			Help: "Stale NFS file handle errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dicom_viewer_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dicom_viewer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// ObserveIndex publishes the size of an installed index for a corpus.
func ObserveIndex(corpus string, studies, series, images int) {
	IndexStudies.WithLabelValues(corpus).Set(float64(studies))
	IndexSeries.WithLabelValues(corpus).Set(float64(series))
	IndexImages.WithLabelValues(corpus).Set(float64(images))
}
