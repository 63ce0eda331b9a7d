package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/index"
	"dicom-viewer/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONResponse writes v as a JSON response with status 200.
func writeJSONResponse(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"status": status})
}

// writeLookupError maps index lookup errors to their 404 responses.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, index.ErrStudyNotFound):
		writeJSONError(w, "Study not found", http.StatusNotFound)
	case errors.Is(err, index.ErrSeriesNotFound):
		writeJSONError(w, "Series not found", http.StatusNotFound)
	case errors.Is(err, index.ErrSliceOutOfRange):
		writeJSONError(w, "Slice index out of range", http.StatusNotFound)
	default:
		logging.Error("lookup failed: %v", err)
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// sliceParam parses the {slice} route variable. Routes constrain it to
// digits, so a parse failure only happens on overflow.
func sliceParam(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["slice"])
	return n, err == nil
}
