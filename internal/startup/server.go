package startup

import (
	"os"
	"time"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
)

// ServerStatus is reported once the HTTP listeners are about to start.
type ServerStatus struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	DicomDir        string
	TestDataDir     string
	StartupDuration time.Duration
}

// LogServerStarted logs the listening endpoints and the corpus roots.
func LogServerStarted(status ServerStatus) {
	logSection("SERVER STARTED")
	logging.Info("  Startup time:  %v", status.StartupDuration)
	logging.Info("  Viewer:        http://localhost:%s", status.Port)
	logging.Info("  API:           http://localhost:%s/api/studies", status.Port)
	if status.MetricsEnabled {
		logging.Info("  Metrics:       http://localhost:%s/metrics", status.MetricsPort)
	} else {
		logging.Info("  Metrics:       disabled")
	}
	logging.Info("  Library:       %s (%s)", status.DicomDir, describeRoot(status.DicomDir))
	logging.Info("  Test data:     %s (%s)", status.TestDataDir, describeRoot(status.TestDataDir))
	logging.Info(rule)
}

func describeRoot(path string) string {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "missing"
	case !info.IsDir():
		return "not a directory"
	default:
		return "mounted"
	}
}

// LogIndexComplete logs the size of a freshly installed library index.
func LogIndexComplete(stats index.Stats, filesSeen int64, took time.Duration) {
	logging.Info("Library ready: %d studies, %d series, %d images from %d files in %v",
		stats.Studies, stats.Series, stats.Images, filesSeen, took.Round(time.Millisecond))
}
