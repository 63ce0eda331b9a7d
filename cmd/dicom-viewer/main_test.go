package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"dicom-viewer/internal/database"
	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/dicommeta/dicomtest"
	"dicom-viewer/internal/handlers"
	"dicom-viewer/internal/index"
	"dicom-viewer/internal/indexer"
	"dicom-viewer/internal/metrics"
	"dicom-viewer/internal/middleware"
)

const (
	studyUID  = "1.2.826.0.1.3680043.2.1"
	seriesUID = "1.2.826.0.1.3680043.2.1.1"
)

// setupServer indexes a small corpus of real DICOM files and returns the
// full router.
func setupServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end server test in short mode")
	}

	tmp := t.TempDir()
	dicomDir := filepath.Join(tmp, "dicom")
	staticDir := filepath.Join(tmp, "static")
	for _, dir := range []string{dicomDir, staticDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>viewer</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i, loc := range []string{"-10.0", "0.0", "10.0"} {
		err := dicomtest.WriteFile(filepath.Join(dicomDir, "IM"+string(rune('A'+i))), dicommeta.Header{
			dicommeta.FieldStudyInstanceUID:  studyUID,
			dicommeta.FieldSeriesInstanceUID: seriesUID,
			dicommeta.FieldPatientName:       "Test^Patient",
			dicommeta.FieldStudyDate:         "20240115",
			dicommeta.FieldModality:          "CT",
			dicommeta.FieldSeriesNumber:      "2",
			dicommeta.FieldInstanceNumber:    string(rune('1' + i)),
			dicommeta.FieldSliceLocation:     loc,
		})
		if err != nil {
			t.Fatalf("failed to write DICOM file: %v", err)
		}
	}

	db, err := database.New(context.Background(), filepath.Join(tmp, "notes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	prober, err := dicommeta.NewProber(dicommeta.DICOMReader{}, 100)
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.New(prober, indexer.Options{
		DicomDir:    dicomDir,
		TestDataDir: filepath.Join(tmp, "missing"),
		Scanner:     indexer.ScannerConfig{NumWorkers: 2},
	})
	t.Cleanup(idx.Stop)
	if err := idx.Index(indexer.ModeLoad); err != nil {
		t.Fatalf("initial index failed: %v", err)
	}

	accessLog := middleware.AccessLogConfig{Output: io.Discard}
	return setupRouter(handlers.New(db, idx), staticDir, accessLog), dicomDir
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestLibraryRoutes(t *testing.T) {
	router, dicomDir := setupServer(t)
	studyID := index.DeriveID(studyUID)
	seriesID := index.DeriveID(seriesUID)

	w := do(t, router, "GET", "/api/studies", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/studies = %d", w.Code)
	}
	var studies []index.StudySummary
	if err := json.NewDecoder(w.Body).Decode(&studies); err != nil {
		t.Fatal(err)
	}
	if len(studies) != 1 || studies[0].StudyInstanceUID != studyID || studies[0].ImageCount != 3 {
		t.Fatalf("unexpected studies %+v", studies)
	}

	w = do(t, router, "GET", "/api/study/"+studyID, "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/study = %d", w.Code)
	}

	w = do(t, router, "GET", "/api/series/"+seriesID+"/slice/0/metadata", "")
	var meta handlers.SliceMetadata
	if err := json.NewDecoder(w.Body).Decode(&meta); err != nil {
		t.Fatal(err)
	}
	if meta.InstanceNumber != 1 || meta.SliceLocation != -10.0 || meta.TotalSlices != 3 {
		t.Errorf("unexpected slice metadata %+v", meta)
	}

	w = do(t, router, "GET", "/api/series/"+seriesID+"/slice/2/dicom", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET dicom = %d", w.Code)
	}
	want, err := os.ReadFile(filepath.Join(dicomDir, "IMC"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(w.Body.Bytes(), want) {
		t.Error("served bytes differ from the third slice's file")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/dicom" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRouteConstraints(t *testing.T) {
	router, _ := setupServer(t)
	seriesID := index.DeriveID(seriesUID)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/api/series/" + seriesID + "/slice/-1/metadata", http.StatusNotFound},
		{"GET", "/api/series/" + seriesID + "/slice/abc/dicom", http.StatusNotFound},
		{"GET", "/api/series/" + seriesID + "/slice/9/metadata", http.StatusNotFound},
		{"GET", "/api/study/unknown", http.StatusNotFound},
		{"PUT", "/api/notes/s1/comments/abc", http.StatusNotFound},
		{"POST", "/api/reindex?mode=bogus", http.StatusBadRequest},
		{"GET", "/api/notes/", http.StatusOK},
		{"GET", "/api/notes", http.StatusOK},
		{"GET", "/api/test-data/info", http.StatusOK},
		{"GET", "/livez", http.StatusOK},
		{"GET", "/readyz", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if w := do(t, router, tt.method, tt.path, ""); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestNotesRoutes(t *testing.T) {
	router, _ := setupServer(t)

	w := do(t, router, "POST", "/api/notes/"+studyUID+"/comments", `{"text": "nodule", "seriesUid": "`+seriesUID+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST comment = %d: %s", w.Code, w.Body.String())
	}
	var c database.Comment
	if err := json.NewDecoder(w.Body).Decode(&c); err != nil {
		t.Fatal(err)
	}

	w = do(t, router, "PUT", "/api/notes/"+studyUID+"/series/"+seriesUID+"/description", `{"description": "Axial"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT series description = %d", w.Code)
	}

	w = do(t, router, "GET", "/api/notes/?studies="+studyUID, "")
	var notes handlers.NotesResponse
	if err := json.NewDecoder(w.Body).Decode(&notes); err != nil {
		t.Fatal(err)
	}
	series := notes.Studies[studyUID].Series[seriesUID]
	if series == nil || series.Description != "Axial" || len(series.Comments) != 1 {
		t.Fatalf("unexpected notes %+v", notes.Studies[studyUID])
	}

	w = do(t, router, "DELETE", "/api/notes/"+studyUID+"/comments/"+strconv.FormatInt(c.ID, 10), "")
	if w.Code != http.StatusOK {
		t.Errorf("DELETE comment = %d", w.Code)
	}
}

func TestServeIndexPage(t *testing.T) {
	router, _ := setupServer(t)

	w := do(t, router, "GET", "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d", w.Code)
	}
	if w.Body.String() != "<html>viewer</html>" {
		t.Errorf("body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMetricsServer(t *testing.T) {
	srv := newMetricsServer(handlers.New(nil, nil), "0")

	if srv.ReadHeaderTimeout == 0 || srv.WriteTimeout == 0 {
		t.Error("metrics server should have timeouts set")
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d", w.Code)
	}
}

func TestDatabaseIsStatsProvider(t *testing.T) {
	var _ metrics.StatsProvider = (*database.Database)(nil)
}

func TestShutdownTimeout(t *testing.T) {
	if shutdownTimeout < 10*time.Second {
		t.Errorf("shutdownTimeout = %v, too short for in-flight DICOM downloads", shutdownTimeout)
	}
}

