package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/database"
	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/indexer"
)

// lineProber reads "study|series|instance" from a file's content so tests
// can build corpora without encoding DICOM.
type lineProber struct{}

func (lineProber) Probe(path string) (dicommeta.Attributes, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dicommeta.Attributes{}, false
	}
	parts := strings.Split(strings.TrimSpace(string(data)), "|")
	if len(parts) != 3 {
		return dicommeta.Attributes{}, false
	}
	instance, _ := strconv.Atoi(parts[2])
	attrs := dicommeta.Attributes{
		FilePath:          path,
		StudyInstanceUID:  parts[0],
		SeriesInstanceUID: parts[1],
		PatientName:       "DOE^JANE",
		Modality:          "CT",
		InstanceNumber:    instance,
		Rows:              512,
		Columns:           512,
	}
	return attrs, attrs.Indexable()
}

type testEnv struct {
	h           *Handlers
	idx         *indexer.Indexer
	db          *database.Database
	dicomDir    string
	testDataDir string
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

// setupTestEnv builds handlers over a real notes database and an indexer
// whose primary corpus has been loaded. fixtures may be nil, in which case
// the fixture directory does not exist.
func setupTestEnv(t *testing.T, library, fixtures map[string]string) *testEnv {
	t.Helper()

	tmp := t.TempDir()
	env := &testEnv{
		dicomDir:    filepath.Join(tmp, "dicom"),
		testDataDir: filepath.Join(tmp, "test-data"),
	}
	writeFiles(t, env.dicomDir, library)
	if fixtures != nil {
		writeFiles(t, env.testDataDir, fixtures)
	}

	db, err := database.New(context.Background(), filepath.Join(tmp, "notes.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	env.db = db

	env.idx = indexer.New(lineProber{}, indexer.Options{
		DicomDir:    env.dicomDir,
		TestDataDir: env.testDataDir,
		Scanner:     indexer.ScannerConfig{NumWorkers: 2},
	})
	t.Cleanup(env.idx.Stop)

	env.h = New(db, env.idx)
	return env
}

// load runs the initial primary scan synchronously.
func (e *testEnv) load(t *testing.T) {
	t.Helper()
	if err := e.idx.Index(indexer.ModeLoad); err != nil {
		t.Fatalf("initial index failed: %v", err)
	}
}

func request(method, target, body string, vars map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var body map[string]string
	decodeJSON(t, w, &body)
	if !strings.Contains(body["error"], message) {
		t.Errorf("error = %q, want it to contain %q", body["error"], message)
	}
}

var defaultLibrary = map[string]string{
	"p1/ct/3.dcm":    "1.2.1|1.2.1.1|3",
	"p1/ct/1.dcm":    "1.2.1|1.2.1.1|1",
	"p1/ct/2.dcm":    "1.2.1|1.2.1.1|2",
	"p1/scout/1.dcm": "1.2.1|1.2.1.2|1",
	"p2/mr/1.dcm":    "1.2.2|1.2.2.1|1",
	"notes.txt":      "not a dicom file",
}
