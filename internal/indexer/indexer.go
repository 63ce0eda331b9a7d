package indexer

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
)

// Corpus labels.
const (
	CorpusPrimary = "primary"
	CorpusFixture = "fixture"
)

// Options configures an Indexer.
type Options struct {
	// DicomDir is the root of the primary corpus
	DicomDir string
	// TestDataDir is the root of the fixture corpus
	TestDataDir string
	// IndexInterval is the period of full primary rescans (0 = disabled)
	IndexInterval time.Duration
	// Scanner configures both corpora's scans
	Scanner ScannerConfig
}

// Indexer owns the primary and fixture corpora. The primary corpus is
// loaded in the background on Start and may be rescanned periodically or on
// demand. The fixture corpus is loaded on first use. The two are never
// merged with each other.
type Indexer struct {
	dicomDir      string
	testDataDir   string
	indexInterval time.Duration

	primaryScanner *Scanner
	primary        *Cache
	fixture        *Cache

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	stopOnce sync.Once

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	// Callback when indexing completes
	onIndexComplete func()
}

// New creates a new Indexer instance.
func New(prober Prober, opts Options) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())

	primaryScanner := NewScanner(prober, opts.Scanner)

	return &Indexer{
		dicomDir:       opts.DicomDir,
		testDataDir:    opts.TestDataDir,
		indexInterval:  opts.IndexInterval,
		primaryScanner: primaryScanner,
		primary:        NewCache(CorpusPrimary, primaryScanner),
		fixture:        NewCache(CorpusFixture, NewScanner(prober, opts.Scanner)),
		ctx:            ctx,
		cancel:         cancel,
		stopChan:       make(chan struct{}),
		startTime:      time.Now(),
	}
}

// SetOnIndexComplete sets a callback to be invoked when indexing completes.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start begins the initial load of the primary corpus in the background
// and, if configured, the periodic rescan.
func (idx *Indexer) Start() error {
	go func() {
		logging.Info("Starting initial index of %s in background...", idx.dicomDir)
		if err := idx.Index(ModeLoad); err != nil {
			logging.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	if idx.indexInterval > 0 {
		go idx.periodicIndex()
	}

	return nil
}

// Stop cancels in-flight scans and stops the periodic rescan.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		idx.cancel()
		close(idx.stopChan)
	})
}

// Index scans the primary corpus in the given mode. It returns immediately
// if a scan of the primary corpus is already running.
func (idx *Indexer) Index(mode string) error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return nil
	}
	defer idx.finishIndexing()

	var err error
	switch mode {
	case ModeLoad:
		_, err = idx.primary.Load(idx.ctx, idx.dicomDir)
	case ModeRefresh:
		_, err = idx.primary.Refresh(idx.ctx, idx.dicomDir)
	case ModeMerge:
		_, err = idx.primary.MergeLoad(idx.ctx, idx.dicomDir)
	default:
		return fmt.Errorf("unknown index mode %q", mode)
	}
	if err != nil {
		return err
	}

	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.initialIndexComplete = true
	idx.initialIndexError = nil
	idx.indexMu.Unlock()

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
	return nil
}

// TriggerIndex runs Index in the background. mode is ModeRefresh or
// ModeMerge.
func (idx *Indexer) TriggerIndex(mode string) {
	go func() {
		if err := idx.Index(mode); err != nil {
			logging.Error("manually triggered %s failed: %v", mode, err)
		}
	}()
}

// ValidTriggerMode reports whether mode may be passed to TriggerIndex.
func ValidTriggerMode(mode string) bool {
	return mode == ModeRefresh || mode == ModeMerge
}

func (idx *Indexer) periodicIndex() {
	ticker := time.NewTicker(idx.indexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-index triggered")
			if err := idx.Index(ModeRefresh); err != nil {
				logging.Error("periodic re-index failed: %v", err)
			}
		case <-idx.stopChan:
			return
		}
	}
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

// finishIndexing clears the in-progress flag. Readiness is only set by a
// scan that installed an Index.
func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
}

// Library returns the published primary Index.
func (idx *Indexer) Library() *index.Index {
	return idx.primary.Get()
}

// TestData returns the fixture Index, scanning it on first use. While the
// fixture root is absent it returns an empty Index and caches nothing, so a
// root mounted later is picked up by the next call.
func (idx *Indexer) TestData(ctx context.Context) (*index.Index, error) {
	if !idx.fixture.Loaded() && !idx.TestDataAvailable() {
		return index.New().Finalize(), nil
	}
	return idx.fixture.Load(ctx, idx.testDataDir)
}

// TestDataDir returns the fixture corpus root.
func (idx *Indexer) TestDataDir() string {
	return idx.testDataDir
}

// TestDataAvailable reports whether the fixture corpus root exists.
func (idx *Indexer) TestDataAvailable() bool {
	_, err := os.Stat(idx.testDataDir)
	return err == nil
}

// IsReady returns true once a primary scan has installed an Index.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// IsIndexing returns whether an index operation is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	Index             index.Stats    `json:"index"`
	LastScan          ScanStats      `json:"lastScan"`
	Corpora           []CorpusStatus `json:"corpora"`
	Memory            *MemoryStatus  `json:"memory,omitempty"`
}

// CorpusStatus reports whether one corpus has an installed Index.
type CorpusStatus struct {
	Name       string    `json:"name"`
	Loaded     bool      `json:"loaded"`
	LastLoaded time.Time `json:"lastLoaded,omitempty"`
}

func corpusStatus(c *Cache) CorpusStatus {
	return CorpusStatus{Name: c.Name(), Loaded: c.Loaded(), LastLoaded: c.LastLoaded()}
}

// MemoryReporter is implemented by a scan Gate that can report heap
// pressure, such as memory.Monitor.
type MemoryReporter interface {
	IsPaused() bool
	Usage() float64
	Limit() int64
}

// MemoryStatus is the scan gate's view of heap usage.
type MemoryStatus struct {
	Paused     bool    `json:"paused"`
	Usage      float64 `json:"usage"`
	LimitBytes int64   `json:"limitBytes"`
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:       idx.initialIndexComplete,
		Indexing:    idx.isIndexing,
		StartTime:   idx.startTime,
		Uptime:      time.Since(idx.startTime).String(),
		LastIndexed: idx.lastIndexTime,
		Index:       idx.primary.Get().Stats(),
		LastScan:    idx.primaryScanner.Stats(),
		Corpora:     []CorpusStatus{corpusStatus(idx.primary), corpusStatus(idx.fixture)},
	}

	if mr, ok := idx.primaryScanner.config.Gate.(MemoryReporter); ok {
		status.Memory = &MemoryStatus{Paused: mr.IsPaused(), Usage: mr.Usage(), LimitBytes: mr.Limit()}
	}

	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}
