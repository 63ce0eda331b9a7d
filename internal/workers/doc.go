// Package workers sizes goroutine pools.
//
// Header probing during a corpus scan is dominated by file reads and small
// parses, so the scanner asks ForIO for two workers per available CPU.
// GOMAXPROCS already reflects container CPU quotas, which keeps the pool
// proportional to what the process may actually use.
//
// The SCAN_WORKERS environment variable pins the count, which is useful on
// network filesystems where too many concurrent opens hurt throughput.
package workers
