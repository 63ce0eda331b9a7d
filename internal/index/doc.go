// Package index holds the in-memory study/series/slice hierarchy built from
// a scanned corpus.
//
// An Index is filled by Fold, one probed file at a time, and then sealed by
// Finalize, which sorts slices by (slice location, instance number), counts
// series and fixes the list order used by API responses. Fold is safe to
// call from several goroutines. Once finalized and published, an Index is
// read-only and its accessors need no locking.
//
// Study and series level fields (patient, descriptions, modality) come from
// the first file folded into them. Parallel scans fold in completion order,
// so when files of one study disagree on those fields the displayed values
// can differ between runs.
//
// Studies and series are keyed by short identifiers derived from their DICOM
// unique identifiers with DeriveID.
package index
