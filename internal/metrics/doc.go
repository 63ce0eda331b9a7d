// Package metrics declares the Prometheus metrics exported by the DICOM viewer.
//
// Metric families:
//   - dicom_viewer_http_*: request counts, latency, in-flight requests
//   - dicom_viewer_scan_*: corpus scans, probe outcomes, worker pool size
//   - dicom_viewer_probe_cache_*: probe result cache effectiveness
//   - dicom_viewer_index_*: size of the installed index per corpus
//   - dicom_viewer_db_*, dicom_viewer_notes_*: notes database activity
//   - dicom_viewer_filesystem_*: stat/open latency and NFS retry behaviour
//   - dicom_viewer_memory_*: heap usage against the memory limit and scan pauses
//
// All metrics are registered with the default registry through promauto and
// served by promhttp on the metrics port.
package metrics
