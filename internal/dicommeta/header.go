package dicommeta

import (
	"errors"
	"io/fs"
	"math"
	"strconv"
	"strings"
)

// Field names one header attribute by its DICOM keyword.
type Field string

// Fields read for indexing.
const (
	FieldStudyInstanceUID  Field = "StudyInstanceUID"
	FieldSeriesInstanceUID Field = "SeriesInstanceUID"
	FieldPatientName       Field = "PatientName"
	FieldPatientID         Field = "PatientID"
	FieldStudyDate         Field = "StudyDate"
	FieldStudyDescription  Field = "StudyDescription"
	FieldSeriesDescription Field = "SeriesDescription"
	FieldSeriesNumber      Field = "SeriesNumber"
	FieldModality          Field = "Modality"
	FieldInstanceNumber    Field = "InstanceNumber"
	FieldSliceLocation     Field = "SliceLocation"
	FieldSliceThickness    Field = "SliceThickness"
	FieldRows              Field = "Rows"
	FieldColumns           Field = "Columns"
)

// Header is the flat attribute map produced by a HeaderReader. A key is
// present only when the file carries the attribute; the value may be empty.
type Header map[Field]string

// HeaderReader reads the header of one file without decoding pixel data.
// Errors that depend on the filesystem rather than the file's bytes should
// wrap ErrUnreadable or an *fs.PathError so the outcome is not cached.
type HeaderReader interface {
	ReadHeader(path string) (Header, error)
}

// ErrUnreadable marks a read failure that may clear on its own: the file
// could not be opened or read, as opposed to being read and rejected.
var ErrUnreadable = errors.New("file unreadable")

// IsUnreadable reports whether err is a filesystem failure rather than a
// verdict on the file's content.
func IsUnreadable(err error) bool {
	var pathErr *fs.PathError
	return errors.Is(err, ErrUnreadable) || errors.As(err, &pathErr)
}

// HeaderReaderFunc adapts a function to HeaderReader.
type HeaderReaderFunc func(path string) (Header, error)

// ReadHeader calls f.
func (f HeaderReaderFunc) ReadHeader(path string) (Header, error) {
	return f(path)
}

// TryExtract runs fn and returns its value, or def if fn returns an error
// or panics.
func TryExtract[T any](fn func() (T, error), def T) (v T) {
	defer func() {
		if r := recover(); r != nil {
			v = def
		}
	}()

	v, err := fn()
	if err != nil {
		return def
	}
	return v
}

// String returns the trimmed value of f, or def when f is absent.
func (h Header) String(f Field, def string) string {
	v, ok := h[f]
	if !ok {
		return def
	}
	return strings.Trim(v, " \x00")
}

// Int parses f as an integer. Absent, empty or non-numeric values yield 0.
// Decimal strings such as "3.0" are truncated.
func (h Header) Int(f Field) int {
	s := h.String(f, "")
	return TryExtract(func() (int, error) {
		n, err := strconv.Atoi(s)
		if err == nil {
			return n, nil
		}
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(fv) || math.IsInf(fv, 0) {
			return 0, err
		}
		return int(fv), nil
	}, 0)
}

// Float parses f as a float. Absent, empty or non-numeric values yield 0.0.
func (h Header) Float(f Field) float64 {
	s := h.String(f, "")
	return TryExtract(func() (float64, error) {
		fv, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(fv) || math.IsInf(fv, 0) {
			return 0, strconv.ErrRange
		}
		return fv, nil
	}, 0)
}
