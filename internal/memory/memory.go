package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
)

// Config holds the heap watermarks of a Monitor.
type Config struct {
	// LimitBytes is the heap budget (0 = use the Go memory limit)
	LimitBytes int64
	// HighWaterMark is the usage at which a paused Monitor resumes (0.0-1.0)
	HighWaterMark float64
	// CriticalWaterMark is the usage at which scans pause (0.0-1.0)
	CriticalWaterMark float64
	// CheckInterval is how often usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the watermarks used by the server.
func DefaultConfig() Config {
	return Config{
		LimitBytes:        0,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and pauses scan workers while it is critical.
// A Monitor without a limit never pauses.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	// OnCritical runs once each time usage crosses the critical watermark.
	// The server uses it to drop the probe cache.
	OnCritical func()

	mu        sync.RWMutex
	current   uint64
	paused    bool
	pauseChan chan struct{}

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a Monitor. With no explicit limit it falls back to the
// Go memory limit, if one is set.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit <= 0 {
		limit = 0
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Debug("Memory monitor: no memory limit configured, scan backpressure disabled")
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		pauseChan: make(chan struct{}),
		stopChan:  make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start begins sampling in the background.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases any paused waiters. It is safe to call
// more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

// check samples usage once and moves between the running and paused states.
func (m *Monitor) check() {
	if m.limit == 0 {
		return
	}
	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	var onCritical func()

	m.mu.Lock()
	m.current = alloc
	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Memory critical (%.1f%% of limit), pausing scans", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		onCritical = m.OnCritical
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Memory recovered (%.1f%% of limit), resuming scans", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.pauseChan)
		m.pauseChan = make(chan struct{})
	}
	m.mu.Unlock()

	if onCritical != nil {
		onCritical()
		go runtime.GC()
	}
}

// WaitIfPaused blocks while usage is critical. It returns ctx's error if
// ctx ends first, and nil once scans may proceed or the Monitor stops.
func (m *Monitor) WaitIfPaused(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	pauseChan := m.pauseChan
	m.mu.RUnlock()

	select {
	case <-pauseChan:
		return nil
	case <-m.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsPaused reports whether scans are currently paused.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled usage as a share of the limit, or 0 when
// there is no limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the heap budget in bytes (0 = none).
func (m *Monitor) Limit() int64 {
	return m.limit
}
