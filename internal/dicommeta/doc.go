// Package dicommeta extracts the indexing attributes of a DICOM file.
//
// Reading is split in two layers. A HeaderReader turns a path into a flat
// map of raw attribute strings, touching only the header; DICOMReader does
// this with github.com/suyashkumar/dicom and never decodes pixel data. A
// Prober then applies per-field defaults and numeric coercion to produce an
// Attributes value, or reports the file as not indexable.
//
// A probe never fails loudly. Reader errors, truncated files, foreign
// formats and panics inside the parser all become "not indexable" so that a
// scan can continue past any single bad file. A field that cannot be read
// falls back to its default without affecting the other fields.
//
// Probers may keep an LRU of outcomes keyed by path, size and modification
// time, so a rescan of an unchanged archive does not re-parse every header.
package dicommeta
