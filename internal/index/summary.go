package index

// SeriesSummary is the list view of a series. SeriesInstanceUID carries the
// derived series identifier, which clients use in slice URLs.
type SeriesSummary struct {
	SeriesInstanceUID string `json:"seriesInstanceUid"`
	SeriesDescription string `json:"seriesDescription"`
	SeriesNumber      string `json:"seriesNumber"`
	Modality          string `json:"modality"`
	SliceCount        int    `json:"sliceCount"`
}

// StudySummary is the list view of a study. StudyInstanceUID carries the
// derived study identifier.
type StudySummary struct {
	StudyInstanceUID string          `json:"studyInstanceUid"`
	PatientName      string          `json:"patientName"`
	PatientID        string          `json:"patientId"`
	StudyDate        string          `json:"studyDate"`
	StudyDescription string          `json:"studyDescription"`
	Modality         string          `json:"modality"`
	SeriesCount      int             `json:"seriesCount"`
	ImageCount       int             `json:"imageCount"`
	Series           []SeriesSummary `json:"series"`
}

// SliceInfo describes one slice without exposing its file path.
type SliceInfo struct {
	Index          int     `json:"index"`
	InstanceNumber int     `json:"instanceNumber"`
	SliceLocation  float64 `json:"sliceLocation"`
	SliceThickness float64 `json:"sliceThickness"`
	Rows           int     `json:"rows"`
	Columns        int     `json:"columns"`
}

// Stats are the totals of an index.
type Stats struct {
	Studies int `json:"studies"`
	Series  int `json:"series"`
	Images  int `json:"images"`
}

// Summary returns the list view of s.
func (s *Series) Summary() SeriesSummary {
	return SeriesSummary{
		SeriesInstanceUID: s.ID,
		SeriesDescription: s.Description,
		SeriesNumber:      s.Number,
		Modality:          s.Modality,
		SliceCount:        len(s.Slices),
	}
}

// Summary returns the list view of s with its series in list order.
func (s *Study) Summary() StudySummary {
	series := make([]SeriesSummary, 0, len(s.seriesOrder))
	for _, ser := range s.SeriesList() {
		series = append(series, ser.Summary())
	}
	return StudySummary{
		StudyInstanceUID: s.ID,
		PatientName:      s.PatientName,
		PatientID:        s.PatientID,
		StudyDate:        s.StudyDate,
		StudyDescription: s.Description,
		Modality:         s.Modality,
		SeriesCount:      s.SeriesCount,
		ImageCount:       s.ImageCount,
		Series:           series,
	}
}

// Info returns the description of slice n.
func (s *Series) Info(n int) (SliceInfo, error) {
	sl, err := s.Slice(n)
	if err != nil {
		return SliceInfo{}, err
	}
	return SliceInfo{
		Index:          n,
		InstanceNumber: sl.InstanceNumber,
		SliceLocation:  sl.SliceLocation,
		SliceThickness: sl.SliceThickness,
		Rows:           sl.Rows,
		Columns:        sl.Columns,
	}, nil
}

// Summaries returns the list view of every study in list order.
func (idx *Index) Summaries() []StudySummary {
	list := make([]StudySummary, 0, len(idx.order))
	for _, study := range idx.Studies() {
		list = append(list, study.Summary())
	}
	return list
}

// Stats returns the study, series and image totals.
func (idx *Index) Stats() Stats {
	var st Stats
	for _, study := range idx.studies {
		st.Studies++
		st.Series += len(study.Series)
		st.Images += study.ImageCount
	}
	return st
}
