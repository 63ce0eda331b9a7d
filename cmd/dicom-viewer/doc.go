// Package main provides the entry point for the DICOM Viewer server.
//
// DICOM Viewer indexes a directory tree of DICOM files into a
// study/series/slice hierarchy and serves it to a browser viewer over HTTP,
// together with per-study notes kept in SQLite.
//
// # Application Lifecycle
//
//  1. Memory Limit: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads environment variables (and CONFIG_FILE) and validates directories
//  3. Metrics Setup: Volume labels for filesystem metrics, pre-populated label sets, app info
//  4. Database Initialization: Opens the SQLite notes database in WAL mode
//  5. Component Initialization:
//     - Metadata Probe: Header-only DICOM reader with an LRU of probe results
//     - Memory Monitor: Pauses scan workers and purges the probe cache under heap pressure
//     - Indexer: Background initial scan of DICOM_DIR, optional periodic rescans
//     - Metrics Collector: Samples note counts into Prometheus gauges
//  6. HTTP Server Setup: Configures routes, middleware, and starts server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 5001):
//     - Static viewer assets
//     - Library API: studies, series, slice metadata and raw DICOM bytes
//     - Test data API over DICOM_TEST_DATA
//     - Notes API: descriptions and comments
//     - Health, readiness and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests (30s timeout)
//  2. Stop metrics collector
//  3. Stop memory monitor and indexer (in-flight scans are cancelled)
//  4. Shutdown metrics server (if running)
//  5. Close database
//
// # Build Requirements
//
// CGO is required for SQLite:
//
//	go build -o dicom-viewer ./cmd/dicom-viewer
//
// # Related Packages
//
//   - [dicom-viewer/internal/dicommeta]: DICOM header probe
//   - [dicom-viewer/internal/index]: Study/series/slice hierarchy
//   - [dicom-viewer/internal/indexer]: Parallel corpus scans and index caches
//   - [dicom-viewer/internal/database]: SQLite notes store
//   - [dicom-viewer/internal/memory]: Memory limit and scan backpressure
//   - [dicom-viewer/internal/handlers]: HTTP request handlers
//   - [dicom-viewer/internal/middleware]: HTTP middleware (logging, metrics)
//   - [dicom-viewer/internal/startup]: Configuration and initialization
package main
