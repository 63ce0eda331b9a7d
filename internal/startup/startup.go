package startup

import (
	"fmt"
	"math"
	"runtime"
	"runtime/debug"
	"time"

	"dicom-viewer/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const rule = "------------------------------------------------------------"

func logSection(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("%s", title)
	logging.Info(rule)
}

// LogDatabaseInit logs how long opening the notes database took.
func LogDatabaseInit(duration time.Duration) {
	logSection("NOTES DATABASE")
	logging.Info("  [OK] notes.db ready in %v", duration)
}

// LogProbeInit logs the probe cache setting.
func LogProbeInit(cacheSize int) {
	if cacheSize > 0 {
		logging.Info("  [OK] Probe cache enabled (%d entries)", cacheSize)
	} else {
		logging.Info("  Probe cache disabled (PROBE_CACHE_SIZE=0)")
	}
}

// LogIndexerInit logs how the primary corpus will be scanned.
func LogIndexerInit(interval time.Duration, workers int) {
	logSection("INDEXER")
	if interval > 0 {
		logging.Info("  Rescan every:  %v", interval)
	} else {
		logging.Info("  Rescan every:  never (POST /api/reindex only)")
	}
	logging.Info("  Scan workers:  %d", workers)
}

// LogIndexerStarted logs that the initial scan is running in the background.
func LogIndexerStarted() {
	logging.Info("  [OK] Initial scan running in background")
}

func printBanner() {
	banner := `
` + rule + `
   ___  ___ ___ ___  __  __  __   ___
  |   \|_ _/ __/ _ \|  \/  | \ \ / (_)_____ __ _____ _ _
  | |) || | (_| (_) | |\/| |  \ V /| / -_) V  V / -_) '_|
  |___/|___\___\___/|_|  |_|   \_/ |_\___|\_/\_/\___|_|

` + rule
	fmt.Println(banner)
	logging.Info("  Version:    %s (%s)", Version, Commit)
	logging.Info("  Built:      %s with %s", BuildTime, GoVersion)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

// logRuntime reports the resources that bound scan throughput: CPUs for
// the probe pool and the Go memory limit for the probe cache.
func logRuntime() {
	logSection("RUNTIME")
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:            %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		logging.Info("  Memory limit:    %d MiB", limit/(1<<20))
	} else {
		logging.Info("  Memory limit:    none (set MEMORY_LIMIT to enable scan backpressure)")
	}
}
