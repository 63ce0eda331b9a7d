// Package handlers provides HTTP request handlers for the DICOM viewer API.
//
// It includes handlers for:
//   - Study, series and slice lookups over the primary corpus
//   - Raw DICOM streaming for indexed slices
//   - The fixture corpus used by browser tests
//   - Study and series notes (descriptions and comments)
//   - Manual reindexing
//   - Health checks, version and metrics
package handlers
