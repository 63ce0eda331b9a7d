package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/database"
	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/filesystem"
	"dicom-viewer/internal/handlers"
	"dicom-viewer/internal/indexer"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/memory"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/middleware"
	"dicom-viewer/internal/startup"
)

const (
	shutdownTimeout          = 30 * time.Second
	metricsCollectorInterval = time.Minute
)

func main() {
	startTime := time.Now()

	// Set the Go memory limit before the first scan allocates
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"dicom":    config.DicomDir,
		"testdata": config.TestDataDir,
		"database": config.DatabaseDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	// Initialize metadata probe
	prober, err := dicommeta.NewProber(dicommeta.DICOMReader{}, config.ProbeCacheSize)
	if err != nil {
		logging.Fatal("Failed to initialize metadata probe: %v", err)
	}
	startup.LogProbeInit(config.ProbeCacheSize)

	// Pause scans and drop cached probe outcomes under memory pressure
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.OnCritical = prober.Purge
	memMonitor.Start()

	// Initialize indexer
	startup.LogIndexerInit(config.IndexInterval, config.ScanWorkers)
	scanConfig := indexer.DefaultScannerConfig()
	scanConfig.NumWorkers = config.ScanWorkers
	scanConfig.Timeout = config.ScanTimeout
	scanConfig.Gate = memMonitor
	idx := indexer.New(prober, indexer.Options{
		DicomDir:      config.DicomDir,
		TestDataDir:   config.TestDataDir,
		IndexInterval: config.IndexInterval,
		Scanner:       scanConfig,
	})

	idx.SetOnIndexComplete(func() {
		metrics.ProbeCacheEntries.Set(float64(prober.CacheLen()))
		status := idx.GetHealthStatus()
		startup.LogIndexComplete(status.Index, status.LastScan.FilesSeen, status.LastScan.Duration)
	})

	// Start indexer in background (non-blocking)
	if err := idx.Start(); err != nil {
		logging.Error("Failed to start indexer: %v", err)
	}
	startup.LogIndexerStarted()

	collector := metrics.NewCollector(db, metricsCollectorInterval)
	collector.Start()

	// Initialize handlers
	h := handlers.New(db, idx)

	// Setup router
	accessLog := middleware.DefaultAccessLogConfig()
	accessLog.LogStaticFiles = config.LogStaticFiles
	accessLog.LogHealthChecks = config.LogHealthChecks
	router := setupRouter(h, config.StaticDir, accessLog)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Create server
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(h, config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go handleShutdown(done, srv, metricsSrv, idx, memMonitor, collector, db)

	// Start server
	startup.LogServerStarted(startup.ServerStatus{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		DicomDir:        config.DicomDir,
		TestDataDir:     config.TestDataDir,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}

	<-done
}

func setupRouter(h *handlers.Handlers, staticDir string, accessLog middleware.AccessLogConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	r.Use(middleware.AccessLog(accessLog))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Primary corpus
	api.HandleFunc("/studies", h.ListStudies).Methods("GET")
	api.HandleFunc("/study/{study}", h.GetStudy).Methods("GET")
	api.HandleFunc("/series/{series}/info", h.GetSeriesInfo).Methods("GET")
	api.HandleFunc("/series/{series}/slice/{slice:[0-9]+}/metadata", h.GetSliceMetadata).Methods("GET")
	api.HandleFunc("/series/{series}/slice/{slice:[0-9]+}/dicom", h.GetSliceDICOM).Methods("GET")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")

	// Fixture corpus
	api.HandleFunc("/test-data/studies", h.ListTestStudies).Methods("GET")
	api.HandleFunc("/test-data/dicom/{study}/{series}/{slice:[0-9]+}", h.GetTestDICOM).Methods("GET")
	api.HandleFunc("/test-data/info", h.GetTestDataInfo).Methods("GET")

	// Notes
	api.HandleFunc("/notes", h.GetNotes).Methods("GET")
	api.HandleFunc("/notes/", h.GetNotes).Methods("GET")
	api.HandleFunc("/notes/{study}/description", h.SetStudyDescription).Methods("PUT")
	api.HandleFunc("/notes/{study}/series/{series}/description", h.SetSeriesDescription).Methods("PUT")
	api.HandleFunc("/notes/{study}/comments", h.AddComment).Methods("POST")
	api.HandleFunc("/notes/{study}/comments/{id:[0-9]+}", h.UpdateComment).Methods("PUT")
	api.HandleFunc("/notes/{study}/comments/{id:[0-9]+}", h.DeleteComment).Methods("DELETE")

	// Static files
	r.HandleFunc("/", serveStaticFile(filepath.Join(staticDir, "index.html"), "text/html; charset=utf-8")).Methods("GET")
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}

// serveStaticFile serves a single file with a fixed content type.
func serveStaticFile(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	}
}

func newMetricsServer(h *handlers.Handlers, port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, idx *indexer.Indexer, memMonitor *memory.Monitor, collector *metrics.Collector, db *database.Database) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdown := startup.BeginShutdown(sig.String())
	shutdown.Step("HTTP server", func() error { return srv.Shutdown(ctx) })
	shutdown.Step("metrics collector", func() error { collector.Stop(); return nil })
	shutdown.Step("indexer", func() error {
		memMonitor.Stop()
		idx.Stop()
		return nil
	})
	if metricsSrv != nil {
		shutdown.Step("metrics server", func() error { return metricsSrv.Shutdown(ctx) })
	}
	shutdown.Step("notes database", db.Close)
	shutdown.Finish()
}
