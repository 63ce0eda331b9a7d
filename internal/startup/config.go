package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/workers"
)

// DatabaseFile is the notes database file name inside DatabaseDir.
const DatabaseFile = "notes.db"

// Config holds all application configuration
type Config struct {
	DicomDir        string
	TestDataDir     string
	DatabaseDir     string
	StaticDir       string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	IndexInterval   time.Duration
	ScanWorkers     int
	ScanTimeout     time.Duration
	ProbeCacheSize  int
	LogStaticFiles  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath string
}

// settings resolves a key from the environment, then the optional YAML
// file, then the default.
type settings struct {
	file map[string]string
}

// loadSettings reads the YAML file named by CONFIG_FILE, if set. Keys are
// the environment variable names in either case.
func loadSettings() (*settings, error) {
	s := &settings{file: make(map[string]string)}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for k, v := range raw {
		if v == nil {
			continue
		}
		s.file[strings.ToUpper(k)] = fmt.Sprint(v)
	}

	logging.Info("  Loaded %d settings from %s", len(s.file), path)
	return s, nil
}

func (s *settings) lookup(key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}
	value, ok := s.file[key]
	return value, ok && value != ""
}

func (s *settings) get(key, defaultValue string) string {
	if value, ok := s.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (s *settings) getBool(key string, defaultValue bool) bool {
	value, ok := s.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s *settings) getInt(key string, defaultValue int) int {
	value, ok := s.lookup(key)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s *settings) getDuration(key string, defaultValue time.Duration) time.Duration {
	value, ok := s.lookup(key)
	if !ok {
		return defaultValue
	}
	if value == "0" {
		return 0
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// LoadConfig loads and validates configuration from environment variables,
// layered over the YAML file named by CONFIG_FILE.
func LoadConfig() (*Config, error) {
	printBanner()
	logRuntime()
	logSection("CONFIGURATION")

	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	config := &Config{
		DicomDir:        s.get("DICOM_DIR", "/dicom"),
		TestDataDir:     s.get("DICOM_TEST_DATA", "./test-data"),
		DatabaseDir:     s.get("DATABASE_DIR", "/database"),
		StaticDir:       s.get("STATIC_DIR", "./static"),
		Port:            s.get("PORT", "5001"),
		MetricsPort:     s.get("METRICS_PORT", "9090"),
		MetricsEnabled:  s.getBool("METRICS_ENABLED", true),
		IndexInterval:   s.getDuration("INDEX_INTERVAL", 0),
		ScanWorkers:     s.getInt(workers.EnvScanWorkers, workers.ForIO(0)),
		ScanTimeout:     s.getDuration("SCAN_TIMEOUT", 30*time.Minute),
		ProbeCacheSize:  s.getInt("PROBE_CACHE_SIZE", dicommeta.DefaultCacheSize),
		LogStaticFiles:  s.getBool("LOG_STATIC_FILES", false),
		LogHealthChecks: s.getBool("LOG_HEALTH_CHECKS", true),
	}

	logging.Info("  DICOM_DIR:           %s", config.DicomDir)
	logging.Info("  DICOM_TEST_DATA:     %s", config.TestDataDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  STATIC_DIR:          %s", config.StaticDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  INDEX_INTERVAL:      %v", config.IndexInterval)
	logging.Info("  SCAN_WORKERS:        %d", config.ScanWorkers)
	logging.Info("  SCAN_TIMEOUT:        %v", config.ScanTimeout)
	logging.Info("  PROBE_CACHE_SIZE:    %d", config.ProbeCacheSize)
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logSection("DIRECTORY SETUP")

	for _, dir := range []struct {
		path *string
		name string
	}{
		{&config.DicomDir, "DICOM"},
		{&config.TestDataDir, "test data"},
		{&config.DatabaseDir, "database"},
		{&config.StaticDir, "static"},
	} {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		*dir.path = abs
		logging.Info("  %s directory (absolute): %s", dir.name, abs)
	}

	config.DatabasePath = filepath.Join(config.DatabaseDir, DatabaseFile)

	// Corpus roots are mounted, not created; a missing one is an empty library
	if err := checkDirectory(config.DicomDir, "DICOM"); err != nil {
		logging.Warn("  DICOM directory issue: %v", err)
	}
	if err := checkDirectory(config.TestDataDir, "test data"); err != nil {
		logging.Debug("  Test data directory issue: %v", err)
	}

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

func checkDirectory(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path exists but is not a directory", name)
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    %s contents: %d entries (top level)", name, len(entries))
		}
	}
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
