package startup

import (
	"time"

	"dicom-viewer/internal/logging"
)

// Shutdown logs an ordered teardown. Each step runs even if an earlier one
// failed.
type Shutdown struct {
	start  time.Time
	failed []string
}

// BeginShutdown logs the signal that started the teardown.
func BeginShutdown(signal string) *Shutdown {
	logSection("SHUTDOWN (received " + signal + ")")
	return &Shutdown{start: time.Now()}
}

// Step runs fn and logs its outcome as name.
func (s *Shutdown) Step(name string, fn func() error) {
	logging.Debug("  Stopping %s...", name)
	start := time.Now()
	if err := fn(); err != nil {
		logging.Warn("  [FAIL] %s: %v", name, err)
		s.failed = append(s.failed, name)
		return
	}
	logging.Info("  [OK] %s stopped in %v", name, time.Since(start).Round(time.Millisecond))
}

// Failed returns the names of the steps that returned an error.
func (s *Shutdown) Failed() []string {
	return s.failed
}

// Finish logs the total teardown time.
func (s *Shutdown) Finish() {
	if len(s.failed) > 0 {
		logging.Warn("  Shutdown finished with %d failed steps in %v", len(s.failed), time.Since(s.start).Round(time.Millisecond))
		return
	}
	logging.Info("  [OK] Shutdown complete in %v", time.Since(s.start).Round(time.Millisecond))
}
