package dicommeta

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"dicom-viewer/internal/logging"
	"dicom-viewer/internal/metrics"
)

// DefaultCacheSize is the number of probe outcomes kept between scans.
// Only outcomes decided by a file's bytes are kept: a parsed header or a
// rejected one. Open and read failures are retried on the next probe.
const DefaultCacheSize = 50000

type probeKey struct {
	path    string
	size    int64
	modTime int64
}

type probeResult struct {
	attrs Attributes
	ok    bool
}

// Prober runs the metadata probe. It is safe for concurrent use.
type Prober struct {
	reader HeaderReader
	cache  *lru.Cache[probeKey, probeResult]
}

// NewProber creates a Prober over reader. cacheSize <= 0 disables the
// outcome cache.
func NewProber(reader HeaderReader, cacheSize int) (*Prober, error) {
	p := &Prober{reader: reader}
	if cacheSize > 0 {
		cache, err := lru.New[probeKey, probeResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create probe cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// Probe extracts the attributes of path. The second result is false when
// the file is not indexable: unreadable, not a DICOM header, or lacking a
// study identifier.
func (p *Prober) Probe(path string) (Attributes, bool) {
	var key probeKey
	cached := false

	if p.cache != nil {
		if info, err := os.Stat(path); err == nil {
			key = probeKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
			cached = true
			if r, hit := p.cache.Get(key); hit {
				metrics.ProbeCacheHits.Inc()
				return r.attrs, r.ok
			}
			metrics.ProbeCacheMisses.Inc()
		}
	}

	attrs, ok, final := p.probe(path)

	if cached && final {
		p.cache.Add(key, probeResult{attrs: attrs, ok: ok})
	}
	return attrs, ok
}

// probe reads path once. final is false when the failure came from the
// filesystem and says nothing about the file's content.
func (p *Prober) probe(path string) (attrs Attributes, ok, final bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debug("Header reader panicked on %s: %v", path, r)
			attrs, ok, final = Attributes{}, false, true
		}
	}()

	h, err := p.reader.ReadHeader(path)
	if err != nil {
		if IsUnreadable(err) {
			logging.Debug("Unreadable, will retry on next scan: %s: %v", path, err)
			return Attributes{}, false, false
		}
		logging.Debug("Not indexable: %s: %v", path, err)
		return Attributes{}, false, true
	}

	attrs = AttributesFromHeader(path, h)
	if !attrs.Indexable() {
		logging.Debug("Not indexable: %s: no StudyInstanceUID", path)
		return attrs, false, true
	}
	return attrs, true, true
}

// Purge drops all cached outcomes.
func (p *Prober) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// CacheLen returns the number of cached outcomes.
func (p *Prober) CacheLen() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}
