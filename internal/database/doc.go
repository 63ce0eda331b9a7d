// Package database provides SQLite storage for study notes.
//
// It handles storage and retrieval of:
//   - Study descriptions, keyed by StudyInstanceUID
//   - Series descriptions, keyed by (StudyInstanceUID, SeriesInstanceUID)
//   - Timestamped comments on a study or one of its series
//
// Timestamps are Unix epoch milliseconds. The database uses WAL mode for
// improved concurrent read performance and includes automatic schema
// initialization.
package database
