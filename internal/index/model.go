package index

import (
	"errors"
	"sync"

	"dicom-viewer/internal/dicommeta"
)

// Lookup errors. Each maps to its own "not found" response.
var (
	ErrStudyNotFound   = errors.New("study not found")
	ErrSeriesNotFound  = errors.New("series not found")
	ErrSliceOutOfRange = errors.New("slice index out of range")
)

// Slice is one image instance. FilePath is the handle used to stream the
// file's bytes.
type Slice struct {
	FilePath       string
	InstanceNumber int
	SliceLocation  float64
	SliceThickness float64
	Rows           int
	Columns        int
}

// Series groups the slices sharing a SeriesInstanceUID.
type Series struct {
	ID          string
	UID         string
	Description string
	Number      string
	Modality    string
	Slices      []Slice
}

// Study groups the series sharing a StudyInstanceUID. Modality is the one
// of the first slice folded and may not describe every series.
type Study struct {
	ID          string
	UID         string
	PatientName string
	PatientID   string
	StudyDate   string
	Description string
	Modality    string

	Series      map[string]*Series
	ImageCount  int
	SeriesCount int

	seriesOrder []string
	finalized   bool
}

// SeriesList returns the study's series in list order. The order is fixed
// by Finalize.
func (s *Study) SeriesList() []*Series {
	list := make([]*Series, 0, len(s.seriesOrder))
	for _, id := range s.seriesOrder {
		list = append(list, s.Series[id])
	}
	return list
}

// Index maps study identifiers to studies.
type Index struct {
	mu      sync.Mutex
	studies map[string]*Study
	order   []string
}

// New returns an empty Index.
func New() *Index {
	return &Index{studies: make(map[string]*Study)}
}

// Fold adds one probed file to the index. Study and series fields are taken
// from the first file seen for each identifier; later files only append
// slices. Attributes without a study identifier are ignored.
func (idx *Index) Fold(a dicommeta.Attributes) {
	if !a.Indexable() {
		return
	}

	studyID := DeriveID(a.StudyInstanceUID)
	seriesID := DeriveID(a.SeriesInstanceUID)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	study, ok := idx.studies[studyID]
	if !ok {
		study = &Study{
			ID:          studyID,
			UID:         a.StudyInstanceUID,
			PatientName: a.PatientName,
			PatientID:   a.PatientID,
			StudyDate:   a.StudyDate,
			Description: a.StudyDescription,
			Modality:    a.Modality,
			Series:      make(map[string]*Series),
		}
		idx.studies[studyID] = study
	}

	series, ok := study.Series[seriesID]
	if !ok {
		series = &Series{
			ID:          seriesID,
			UID:         a.SeriesInstanceUID,
			Description: a.SeriesDescription,
			Number:      a.SeriesNumber,
			Modality:    a.Modality,
		}
		study.Series[seriesID] = series
	}

	series.Slices = append(series.Slices, Slice{
		FilePath:       a.FilePath,
		InstanceNumber: a.InstanceNumber,
		SliceLocation:  a.SliceLocation,
		SliceThickness: a.SliceThickness,
		Rows:           a.Rows,
		Columns:        a.Columns,
	})
	study.ImageCount++
	study.finalized = false
}

// Len returns the number of studies.
func (idx *Index) Len() int {
	return len(idx.studies)
}

// Studies returns the studies in list order.
func (idx *Index) Studies() []*Study {
	list := make([]*Study, 0, len(idx.order))
	for _, id := range idx.order {
		list = append(list, idx.studies[id])
	}
	return list
}

// Study returns the study with the given identifier.
func (idx *Index) Study(studyID string) (*Study, error) {
	study, ok := idx.studies[studyID]
	if !ok {
		return nil, ErrStudyNotFound
	}
	return study, nil
}

// Series returns a series of a known study.
func (idx *Index) Series(studyID, seriesID string) (*Series, error) {
	study, err := idx.Study(studyID)
	if err != nil {
		return nil, err
	}
	series, ok := study.Series[seriesID]
	if !ok {
		return nil, ErrSeriesNotFound
	}
	return series, nil
}

// FindSeries searches every study for seriesID and returns the series and
// its parent study.
func (idx *Index) FindSeries(seriesID string) (*Study, *Series, error) {
	for _, id := range idx.order {
		study := idx.studies[id]
		if series, ok := study.Series[seriesID]; ok {
			return study, series, nil
		}
	}
	return nil, nil, ErrSeriesNotFound
}

// Slice returns the slice at position n of a series, in sorted order.
func (idx *Index) Slice(studyID, seriesID string, n int) (Slice, error) {
	series, err := idx.Series(studyID, seriesID)
	if err != nil {
		return Slice{}, err
	}
	return series.Slice(n)
}

// Slice returns the slice at position n.
func (s *Series) Slice(n int) (Slice, error) {
	if n < 0 || n >= len(s.Slices) {
		return Slice{}, ErrSliceOutOfRange
	}
	return s.Slices[n], nil
}
