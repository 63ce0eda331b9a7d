// Package indexer scans DICOM corpora and keeps their indexes.
//
// A Scanner walks a corpus root, probes every regular file with a bounded
// pool of workers and folds the results into an index.Index through a single
// aggregator. Files that cannot be probed are skipped; a missing root yields
// an empty index. A ScannerConfig.Gate, such as a memory.Monitor, can hold
// workers back between probes.
//
// A Cache holds the published index of one corpus:
//   - Load: scan on first use, then return the cached index
//   - Refresh: rescan and replace
//   - MergeLoad: rescan and merge, newer studies replacing older ones
//   - Get: return the current index without scanning
//
// Readers of Get never block and never see a partially built index.
//
// The Indexer composes two caches, the primary corpus and the fixture
// corpus, and drives the primary one:
//   - Initial load: background scan on application startup
//   - Periodic index: configurable interval-based rescans
//   - Manual trigger: refresh or merge on demand via the API
package indexer
