package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
)

// TestDataInfo describes the fixture corpus.
type TestDataInfo struct {
	TestDataFolder string `json:"testDataFolder"`
	Available      bool   `json:"available"`
	StudyCount     int    `json:"studyCount"`
	TotalImages    int    `json:"totalImages"`
}

// testData returns the fixture Index, loading it on first use. A failed
// load still yields whatever was indexed.
func (h *Handlers) testData(r *http.Request) *index.Index {
	idx, err := h.indexer.TestData(r.Context())
	if err != nil {
		logging.Warn("test data scan failed: %v", err)
	}
	return idx
}

// ListTestStudies returns every study of the fixture corpus.
func (h *Handlers) ListTestStudies(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, h.testData(r).Summaries())
}

// GetTestDICOM streams the file of one slice of the fixture corpus.
func (h *Handlers) GetTestDICOM(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	n, ok := sliceParam(r)
	if !ok {
		n = -1
	}

	slice, err := h.testData(r).Slice(vars["study"], vars["series"], n)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	h.serveDICOM(w, r, slice.FilePath)
}

// GetTestDataInfo reports where the fixture corpus lives and what it holds.
func (h *Handlers) GetTestDataInfo(w http.ResponseWriter, r *http.Request) {
	stats := h.testData(r).Stats()
	writeJSONResponse(w, TestDataInfo{
		TestDataFolder: h.indexer.TestDataDir(),
		Available:      h.indexer.TestDataAvailable(),
		StudyCount:     stats.Studies,
		TotalImages:    stats.Images,
	})
}
