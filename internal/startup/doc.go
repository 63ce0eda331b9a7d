// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded by [LoadConfig] from environment variables,
// optionally layered over a YAML file named by CONFIG_FILE whose keys are
// the same variable names. Environment values win over the file, and the
// file wins over defaults:
//
//   - DICOM_DIR: Root of the primary DICOM corpus (default: /dicom)
//   - DICOM_TEST_DATA: Root of the fixture corpus (default: ./test-data)
//   - DATABASE_DIR: Directory holding notes.db (default: /database)
//   - STATIC_DIR: Viewer front-end assets (default: ./static)
//   - PORT: HTTP server port (default: 5001)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - INDEX_INTERVAL: Full rescan interval as Go duration, 0 disables (default: 0)
//   - SCAN_WORKERS: Concurrent header probes (default: 2x GOMAXPROCS)
//   - SCAN_TIMEOUT: Upper bound on one scan as Go duration (default: 30m)
//   - PROBE_CACHE_SIZE: Cached probe results, 0 disables (default: 50000)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Invalid values fall back to their defaults with a warning.
//
// # Directory Setup
//
//   - Database directory: Required, created if missing, must be writable
//   - Corpus directories: Checked but not created (should be mounted)
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
//   - [LogDatabaseInit], [LogProbeInit], [LogIndexerInit]: component setup
//   - [LogHTTPRoutes]: route counts per API group (library, test-data,
//     notes, operational, static), full table at debug level
//   - [LogServerStarted]: endpoints and whether each corpus root is mounted
//   - [LogIndexComplete]: size of each newly installed library index
//   - [Shutdown]: ordered teardown steps with their outcome and duration
package startup
