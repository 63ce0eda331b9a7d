package indexer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/workers"
)

// Prober reads the indexing attributes of one file.
type Prober interface {
	Probe(path string) (dicommeta.Attributes, bool)
}

// Gate holds scan workers back while the process is short of memory.
type Gate interface {
	WaitIfPaused(ctx context.Context) error
}

// ScannerConfig configures the parallel scan.
type ScannerConfig struct {
	// NumWorkers is the number of concurrent probes (0 = auto based on CPU)
	NumWorkers int
	// ChannelBuffer is the size of the job and result channel buffers
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
	// Timeout bounds a whole scan (0 = no limit)
	Timeout time.Duration
	// Gate, if set, is consulted before every probe
	Gate Gate
}

// DefaultScannerConfig returns defaults sized for header probing, which is
// mostly waiting on file reads.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		NumWorkers:    workers.ForIO(0),
		ChannelBuffer: 1000,
		SkipHidden:    false,
		Timeout:       30 * time.Minute,
	}
}

// ScanStats are the counters of the most recent scan.
type ScanStats struct {
	FilesSeen    int64         `json:"filesSeen"`
	Indexed      int64         `json:"indexed"`
	NotIndexable int64         `json:"notIndexable"`
	Duration     time.Duration `json:"duration"`
}

type probeResult struct {
	attrs dicommeta.Attributes
	ok    bool
}

// Scanner walks a corpus and probes its files with a bounded worker pool.
// Results are folded by a single aggregator in completion order; all
// ordering is applied afterwards by Finalize.
type Scanner struct {
	prober Prober
	config ScannerConfig

	filesSeen    atomic.Int64
	indexed      atomic.Int64
	notIndexable atomic.Int64
	lastDuration atomic.Int64
}

// NewScanner creates a Scanner. Zero config fields take their defaults.
func NewScanner(prober Prober, config ScannerConfig) *Scanner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(0)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = config.NumWorkers * 4
	}
	return &Scanner{prober: prober, config: config}
}

// Scan builds a finalized Index of the files under root. A missing root
// yields an empty Index. Files that cannot be probed are dropped. If ctx is
// cancelled or the scan times out, the files folded so far are returned,
// finalized, together with the context error.
func (s *Scanner) Scan(ctx context.Context, root string) (*index.Index, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	logging.Info("Scanning %s with %d workers", root, s.config.NumWorkers)
	startTime := time.Now()

	s.filesSeen.Store(0)
	s.indexed.Store(0)
	s.notIndexable.Store(0)
	metrics.ScanWorkers.Set(float64(s.config.NumWorkers))

	jobs := make(chan string, s.config.ChannelBuffer)
	results := make(chan probeResult, s.config.ChannelBuffer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		return WalkFiles(gctx, root, s.config.SkipHidden, func(path string) error {
			s.filesSeen.Add(1)
			select {
			case jobs <- path:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	var workerWg sync.WaitGroup
	for i := 0; i < s.config.NumWorkers; i++ {
		workerWg.Add(1)
		g.Go(func() error {
			defer workerWg.Done()
			return s.worker(gctx, jobs, results)
		})
	}

	go func() {
		workerWg.Wait()
		close(results)
	}()

	idx := index.New()
	for r := range results {
		s.record(r)
		if r.ok {
			idx.Fold(r.attrs)
		}
	}

	err := g.Wait()
	idx.Finalize()

	duration := time.Since(startTime)
	s.lastDuration.Store(int64(duration))

	stats := idx.Stats()
	logging.Info("Scan of %s complete: %d studies, %d series, %d images from %d files in %v (not indexable: %d)",
		root, stats.Studies, stats.Series, stats.Images, s.filesSeen.Load(), duration, s.notIndexable.Load())

	if err != nil {
		return idx, fmt.Errorf("scan %s: %w", root, err)
	}
	return idx, nil
}

func (s *Scanner) worker(ctx context.Context, jobs <-chan string, results chan<- probeResult) error {
	for path := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.config.Gate != nil {
			if err := s.config.Gate.WaitIfPaused(ctx); err != nil {
				return err
			}
		}

		attrs, ok := s.prober.Probe(path)

		select {
		case results <- probeResult{attrs: attrs, ok: ok}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scanner) record(r probeResult) {
	switch {
	case r.ok:
		s.indexed.Add(1)
		metrics.ScanFilesTotal.WithLabelValues("indexed").Inc()
	case r.attrs.FilePath != "":
		s.notIndexable.Add(1)
		metrics.ScanFilesTotal.WithLabelValues("missing_study").Inc()
	default:
		s.notIndexable.Add(1)
		metrics.ScanFilesTotal.WithLabelValues("not_indexable").Inc()
	}
}

// Stats returns the counters of the current or most recent scan.
func (s *Scanner) Stats() ScanStats {
	return ScanStats{
		FilesSeen:    s.filesSeen.Load(),
		Indexed:      s.indexed.Load(),
		NotIndexable: s.notIndexable.Load(),
		Duration:     time.Duration(s.lastDuration.Load()),
	}
}
