package dicommeta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-viewer/internal/filesystem"
)

var fieldTags = map[Field]tag.Tag{
	FieldStudyInstanceUID:  tag.StudyInstanceUID,
	FieldSeriesInstanceUID: tag.SeriesInstanceUID,
	FieldPatientName:       tag.PatientName,
	FieldPatientID:         tag.PatientID,
	FieldStudyDate:         tag.StudyDate,
	FieldStudyDescription:  tag.StudyDescription,
	FieldSeriesDescription: tag.SeriesDescription,
	FieldSeriesNumber:      tag.SeriesNumber,
	FieldModality:          tag.Modality,
	FieldInstanceNumber:    tag.InstanceNumber,
	FieldSliceLocation:     tag.SliceLocation,
	FieldSliceThickness:    tag.SliceThickness,
	FieldRows:              tag.Rows,
	FieldColumns:           tag.Columns,
}

// DICOMReader reads Part 10 headers, stopping before pixel data. Files are
// opened through filesystem.OpenWithRetry so stale NFS handles are retried.
type DICOMReader struct {
	// Retry overrides filesystem.DefaultRetryConfig when non-zero
	Retry filesystem.RetryConfig
}

// ReadHeader parses the header of path. Attributes the file lacks, or that
// cannot be converted to a string, are left out of the result. Failures to
// open or stat the file wrap ErrUnreadable.
func (r DICOMReader) ReadHeader(path string) (Header, error) {
	retry := r.Retry
	if retry == (filesystem.RetryConfig{}) {
		retry = filesystem.DefaultRetryConfig()
	}

	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	ds, err := dicom.Parse(f, info.Size(), nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DICOM header: %w", err)
	}

	h := make(Header, len(fieldTags))
	for field, t := range fieldTags {
		v := TryExtract(func() (elementValue, error) {
			return findElementString(ds, t)
		}, elementValue{})
		if v.present {
			h[field] = v.value
		}
	}

	return h, nil
}

type elementValue struct {
	value   string
	present bool
}

func findElementString(ds dicom.Dataset, t tag.Tag) (elementValue, error) {
	e, err := ds.FindElementByTag(t)
	if err != nil {
		return elementValue{}, err
	}

	switch v := e.Value.GetValue().(type) {
	case []string:
		return elementValue{value: strings.Join(v, `\`), present: true}, nil
	case []int:
		if len(v) == 0 {
			return elementValue{present: true}, nil
		}
		return elementValue{value: strconv.Itoa(v[0]), present: true}, nil
	case []float64:
		if len(v) == 0 {
			return elementValue{present: true}, nil
		}
		return elementValue{value: strconv.FormatFloat(v[0], 'f', -1, 64), present: true}, nil
	default:
		return elementValue{}, fmt.Errorf("unsupported value type for %s", t)
	}
}
