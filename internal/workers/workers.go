package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvScanWorkers overrides the probe pool size when set to a positive integer.
const EnvScanWorkers = "SCAN_WORKERS"

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier is workers per CPU. Header probing mostly waits on file
// reads, so [ForIO] uses 2.
//
// The limit parameter caps the worker count. Use 0 for no limit.
// SCAN_WORKERS overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvScanWorkers); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)
	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
