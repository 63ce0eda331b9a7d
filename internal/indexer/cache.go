package indexer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
)

// Scan modes.
const (
	ModeLoad    = "load"
	ModeRefresh = "refresh"
	ModeMerge   = "merge"
)

// Cache holds the published Index of one corpus. Get never blocks and
// always observes a complete Index; Load, Refresh and MergeLoad are
// serialized so that two scans never race to install results.
type Cache struct {
	name    string
	scanner *Scanner

	writeMu sync.Mutex
	current atomic.Pointer[index.Index]
	loaded  atomic.Bool
	lastAt  atomic.Int64
}

// NewCache creates an empty cache. name labels the corpus in logs and
// metrics.
func NewCache(name string, scanner *Scanner) *Cache {
	return &Cache{name: name, scanner: scanner}
}

// Name returns the corpus label.
func (c *Cache) Name() string {
	return c.name
}

// Get returns the published Index without scanning. Before the first load
// it returns an empty Index.
func (c *Cache) Get() *index.Index {
	if idx := c.current.Load(); idx != nil {
		return idx
	}
	return index.New().Finalize()
}

// Loaded reports whether an Index has been installed.
func (c *Cache) Loaded() bool {
	return c.loaded.Load()
}

// LastLoaded returns when an Index was last installed.
func (c *Cache) LastLoaded() time.Time {
	ns := c.lastAt.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Load scans root if nothing is cached yet, otherwise returns the cached
// Index.
func (c *Cache) Load(ctx context.Context, root string) (*index.Index, error) {
	if c.loaded.Load() {
		return c.current.Load(), nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.loaded.Load() {
		return c.current.Load(), nil
	}
	return c.scanAndInstall(ctx, root, ModeLoad)
}

// Refresh rescans root and replaces the cached Index.
func (c *Cache) Refresh(ctx context.Context, root string) (*index.Index, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.scanAndInstall(ctx, root, ModeRefresh)
}

// MergeLoad rescans root and merges the result into the cached Index.
// Studies found by the scan replace cached studies with the same id;
// cached studies the scan did not find are kept.
func (c *Cache) MergeLoad(ctx context.Context, root string) (*index.Index, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.scanAndInstall(ctx, root, ModeMerge)
}

// scanAndInstall must be called with writeMu held. A failed or cancelled
// scan leaves the cached Index untouched.
func (c *Cache) scanAndInstall(ctx context.Context, root, mode string) (*index.Index, error) {
	metrics.ScanRunsTotal.WithLabelValues(c.name, mode).Inc()
	metrics.ScanIsRunning.Inc()
	defer metrics.ScanIsRunning.Dec()

	start := time.Now()
	scanned, err := c.scanner.Scan(ctx, root)
	metrics.ScanDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScanErrors.WithLabelValues(c.name).Inc()
		logging.Error("%s corpus %s failed: %v", c.name, mode, err)
		return c.Get(), err
	}

	next := scanned
	if mode == ModeMerge {
		if prev := c.current.Load(); prev != nil {
			next = prev.Merge(scanned)
		}
	}

	c.current.Store(next)
	c.loaded.Store(true)
	c.lastAt.Store(time.Now().UnixNano())

	stats := next.Stats()
	metrics.ScanLastTimestamp.WithLabelValues(c.name).Set(float64(time.Now().Unix()))
	metrics.ObserveIndex(c.name, stats.Studies, stats.Series, stats.Images)
	logging.Info("Installed %s index (%s): %d studies, %d images", c.name, mode, stats.Studies, stats.Images)

	return next, nil
}
