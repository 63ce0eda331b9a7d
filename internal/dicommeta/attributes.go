package dicommeta

// UnknownPatientName is shown when a file has no PatientName attribute.
const UnknownPatientName = "Unknown"

// Attributes is the fixed attribute set extracted from one indexable file.
// Every field is populated; missing attributes carry their defaults.
type Attributes struct {
	FilePath string

	StudyInstanceUID  string
	SeriesInstanceUID string

	PatientName      string
	PatientID        string
	StudyDate        string
	StudyDescription string

	SeriesDescription string
	SeriesNumber      string
	Modality          string

	InstanceNumber int
	SliceLocation  float64
	SliceThickness float64
	Rows           int
	Columns        int
}

// Indexable reports whether the attributes can be placed in the hierarchy.
// A file without a study identifier cannot.
func (a Attributes) Indexable() bool {
	return a.StudyInstanceUID != ""
}

// AttributesFromHeader applies the per-field defaults to h.
func AttributesFromHeader(path string, h Header) Attributes {
	return Attributes{
		FilePath:          path,
		StudyInstanceUID:  h.String(FieldStudyInstanceUID, ""),
		SeriesInstanceUID: h.String(FieldSeriesInstanceUID, ""),
		PatientName:       h.String(FieldPatientName, UnknownPatientName),
		PatientID:         h.String(FieldPatientID, ""),
		StudyDate:         h.String(FieldStudyDate, ""),
		StudyDescription:  h.String(FieldStudyDescription, ""),
		SeriesDescription: h.String(FieldSeriesDescription, ""),
		SeriesNumber:      h.String(FieldSeriesNumber, ""),
		Modality:          h.String(FieldModality, ""),
		InstanceNumber:    h.Int(FieldInstanceNumber),
		SliceLocation:     h.Float(FieldSliceLocation),
		SliceThickness:    h.Float(FieldSliceThickness),
		Rows:              h.Int(FieldRows),
		Columns:           h.Int(FieldColumns),
	}
}
