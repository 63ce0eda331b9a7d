package metrics

import (
	"time"

	"dicom-viewer/internal/logging"
)

// StatsProvider supplies the periodically sampled statistics.
type StatsProvider interface {
	GetStats() Stats
}

// StatsProviderFunc adapts a function to StatsProvider.
type StatsProviderFunc func() Stats

// GetStats calls f.
func (f StatsProviderFunc) GetStats() Stats {
	return f()
}

// Stats holds the sampled statistics
type Stats struct {
	Comments     int
	Descriptions int
}

// Collector periodically samples slow-changing statistics into gauges.
// Index sizes are published directly when an index is installed.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	NotesCommentsTotal.Set(float64(stats.Comments))
	NotesDescriptionsTotal.Set(float64(stats.Descriptions))

	logging.Debug("Metrics collected: comments=%d, descriptions=%d", stats.Comments, stats.Descriptions)
}
