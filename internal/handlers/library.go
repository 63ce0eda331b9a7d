package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/indexer"
	"dicom-viewer/internal/logging"
)

// SeriesInfo is a series summary with the identifier of its study.
type SeriesInfo struct {
	index.SeriesSummary
	StudyID string `json:"studyId"`
}

// SliceMetadata describes one slice and its position in the series.
type SliceMetadata struct {
	index.SliceInfo
	TotalSlices int `json:"totalSlices"`
}

// ListStudies returns every study of the primary corpus.
func (h *Handlers) ListStudies(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, h.indexer.Library().Summaries())
}

// GetStudy returns one study of the primary corpus.
func (h *Handlers) GetStudy(w http.ResponseWriter, r *http.Request) {
	study, err := h.indexer.Library().Study(mux.Vars(r)["study"])
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSONResponse(w, study.Summary())
}

// GetSeriesInfo returns a series of the primary corpus by its identifier.
func (h *Handlers) GetSeriesInfo(w http.ResponseWriter, r *http.Request) {
	study, series, err := h.indexer.Library().FindSeries(mux.Vars(r)["series"])
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSONResponse(w, SeriesInfo{SeriesSummary: series.Summary(), StudyID: study.ID})
}

// GetSliceMetadata returns the indexed attributes of one slice.
func (h *Handlers) GetSliceMetadata(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.indexer.Library().FindSeries(mux.Vars(r)["series"])
	if err != nil {
		writeLookupError(w, err)
		return
	}

	n, ok := sliceParam(r)
	if !ok {
		writeLookupError(w, index.ErrSliceOutOfRange)
		return
	}

	info, err := series.Info(n)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSONResponse(w, SliceMetadata{SliceInfo: info, TotalSlices: len(series.Slices)})
}

// GetSliceDICOM streams the file of one slice of the primary corpus.
func (h *Handlers) GetSliceDICOM(w http.ResponseWriter, r *http.Request) {
	_, series, err := h.indexer.Library().FindSeries(mux.Vars(r)["series"])
	if err != nil {
		writeLookupError(w, err)
		return
	}

	n, ok := sliceParam(r)
	if !ok {
		writeLookupError(w, index.ErrSliceOutOfRange)
		return
	}

	slice, err := series.Slice(n)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	h.serveDICOM(w, r, slice.FilePath)
}

// serveDICOM writes the bytes of an indexed file. The file may have been
// removed since the last scan.
func (h *Handlers) serveDICOM(w http.ResponseWriter, r *http.Request, path string) {
	f, err := openWithRetry(path, h.retryCfg)
	if err != nil {
		logging.Warn("failed to open indexed file %s: %v", path, err)
		writeJSONError(w, "Failed to read DICOM file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logging.Warn("failed to stat indexed file %s: %v", path, err)
		writeJSONError(w, "Failed to read DICOM file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/dicom")
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// TriggerReindex starts a background rescan of the primary corpus.
// The mode query parameter is "refresh" (default) or "merge".
func (h *Handlers) TriggerReindex(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = indexer.ModeRefresh
	}
	if !indexer.ValidTriggerMode(mode) {
		writeJSONError(w, "Invalid mode: must be refresh or merge", http.StatusBadRequest)
		return
	}

	if h.indexer.IsIndexing() {
		writeJSONStatus(w, "already_running", http.StatusAccepted)
		return
	}

	h.indexer.TriggerIndex(mode)
	writeJSONStatus(w, "started", http.StatusAccepted)
}
