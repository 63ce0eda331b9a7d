// Package logging provides a small leveled logger for the DICOM viewer.
//
// Levels, lowest first:
//   - DEBUG: per-file probe failures, worker lifecycle
//   - INFO: scan summaries, configuration, lifecycle steps
//   - WARN: walk errors, invalid configuration values
//   - ERROR: failed scans, database failures
//   - FATAL: unrecoverable startup errors
//
// The level comes from DEBUG (any truthy value selects debug) and then
// LOG_LEVEL. Tests may override it with SetLevel and capture output with
// SetOutput.
package logging
