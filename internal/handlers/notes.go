package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/database"
	"dicom-viewer/internal/logging"
)

// NotesResponse wraps the notes of a batch of studies.
type NotesResponse struct {
	Studies map[string]*database.StudyNotes `json:"studies"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

type commentRequest struct {
	Text      string   `json:"text"`
	Time      *float64 `json:"time"`
	SeriesUID *string  `json:"seriesUid"`
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// unchanged.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// parseStudyList splits a comma-separated list of study UIDs, dropping
// blanks.
func parseStudyList(raw string) []string {
	var uids []string
	for _, uid := range strings.Split(raw, ",") {
		if uid = strings.TrimSpace(uid); uid != "" {
			uids = append(uids, uid)
		}
	}
	return uids
}

// GetNotes returns the notes of the studies named by the "studies" query
// parameter.
func (h *Handlers) GetNotes(w http.ResponseWriter, r *http.Request) {
	uids := parseStudyList(r.URL.Query().Get("studies"))
	if len(uids) > database.MaxBatchStudies {
		writeJSONError(w, fmt.Sprintf("Too many studies requested (maximum %d)", database.MaxBatchStudies), http.StatusBadRequest)
		return
	}

	notes, err := h.db.GetNotes(r.Context(), uids)
	if err != nil {
		logging.Error("failed to load notes: %v", err)
		writeJSONError(w, "Failed to load notes", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, NotesResponse{Studies: notes})
}

// SetStudyDescription stores or clears a study description.
func (h *Handlers) SetStudyDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.db.SetStudyDescription(r.Context(), mux.Vars(r)["study"], req.Description)
	if err != nil {
		logging.Error("failed to save study description: %v", err)
		writeJSONError(w, "Failed to save description", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, result)
}

// SetSeriesDescription stores or clears a series description.
func (h *Handlers) SetSeriesDescription(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	result, err := h.db.SetSeriesDescription(r.Context(), vars["study"], vars["series"], req.Description)
	if err != nil {
		logging.Error("failed to save series description: %v", err)
		writeJSONError(w, "Failed to save description", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, result)
}

// AddComment adds a comment to a study, or to one of its series when the
// body names seriesUid.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var clientTime *int64
	if req.Time != nil && !math.IsNaN(*req.Time) && !math.IsInf(*req.Time, 0) {
		t := int64(*req.Time)
		clientTime = &t
	}

	seriesUID := ""
	if req.SeriesUID != nil {
		seriesUID = strings.TrimSpace(*req.SeriesUID)
	}

	comment, err := h.db.AddComment(r.Context(), mux.Vars(r)["study"], seriesUID, req.Text, clientTime)
	if err != nil {
		writeCommentError(w, "add", err)
		return
	}

	writeJSONResponse(w, comment)
}

// UpdateComment replaces the text of a comment. Client times are ignored.
func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := commentID(r)
	if !ok {
		writeJSONError(w, "Comment not found", http.StatusNotFound)
		return
	}

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.db.UpdateComment(r.Context(), mux.Vars(r)["study"], id, req.Text)
	if err != nil {
		writeCommentError(w, "update", err)
		return
	}

	writeJSONResponse(w, comment)
}

// DeleteComment removes a comment of a study.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := commentID(r)
	if !ok {
		writeJSONError(w, "Comment not found", http.StatusNotFound)
		return
	}

	result, err := h.db.DeleteComment(r.Context(), mux.Vars(r)["study"], id)
	if err != nil {
		writeCommentError(w, "delete", err)
		return
	}

	writeJSONResponse(w, result)
}

func commentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

func writeCommentError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, database.ErrEmptyText):
		writeJSONError(w, "Comment text is required", http.StatusBadRequest)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "Comment not found", http.StatusNotFound)
	default:
		logging.Error("failed to %s comment: %v", op, err)
		writeJSONError(w, "Failed to save comment", http.StatusInternalServerError)
	}
}
