package startup

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/logging"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/api/studies", noop).Methods("GET").Name("studies")
	router.HandleFunc("/api/notes/{study}/comments", noop).Methods("POST")
	router.HandleFunc("/health", noop)

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes failed: %v", err)
	}
	if len(routes) != 3 {
		t.Fatalf("routes = %d, want 3", len(routes))
	}
	if routes[0].Method != "GET" || routes[0].Path != "/api/studies" || routes[0].Name != "studies" {
		t.Errorf("unexpected route %+v", routes[0])
	}
	if routes[2].Method != "*" {
		t.Errorf("route without methods = %q, want *", routes[2].Method)
	}
}

func TestRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/studies":                "library",
		"/api/studies/{uid}/series":   "library",
		"/api/reindex":                "library",
		"/api/notes/{study}/comments": "notes",
		"/api/test-data/studies":      "test-data",
		"/health":                     "operational",
		"/version":                    "operational",
		"/":                           "static",
	}
	for path, want := range tests {
		if got := routeGroup(path); got != want {
			t.Errorf("routeGroup(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestGroupRoutes(t *testing.T) {
	groups := GroupRoutes([]RouteInfo{
		{Method: "GET", Path: "/api/studies"},
		{Method: "GET", Path: "/api/studies/{uid}"},
		{Method: "GET", Path: "/api/test-data/studies"},
		{Method: "PUT", Path: "/api/notes/{study}/description"},
		{Method: "GET", Path: "/health"},
	})

	want := map[string]int{GroupLibrary: 2, GroupTestData: 1, GroupNotes: 1, GroupOperational: 1}
	for g, n := range want {
		if len(groups[g]) != n {
			t.Errorf("group %s has %d routes, want %d", g, len(groups[g]), n)
		}
	}
	if _, ok := groups[GroupStatic]; ok {
		t.Error("expected no static group")
	}
}

func TestLogHTTPRoutesCountsGroups(t *testing.T) {
	buf := captureLog(t)

	router := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	router.HandleFunc("/api/studies", noop).Methods("GET")
	router.HandleFunc("/api/test-data/studies", noop).Methods("GET")
	router.HandleFunc("/api/notes/{study}/comments", noop).Methods("GET", "POST")

	LogHTTPRoutes(router, false, true)

	out := buf.String()
	for _, want := range []string{"library:     1 routes", "notes:       2 routes", "test-data:   1 routes", "static files off, health checks on"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestLogServerStartedDescribesRoots(t *testing.T) {
	buf := captureLog(t)

	dicomDir := t.TempDir()
	LogServerStarted(ServerStatus{
		Port:        "5001",
		DicomDir:    dicomDir,
		TestDataDir: filepath.Join(dicomDir, "absent"),
	})

	out := buf.String()
	if !strings.Contains(out, dicomDir+" (mounted)") {
		t.Errorf("library root not reported as mounted:\n%s", out)
	}
	if !strings.Contains(out, "absent (missing)") {
		t.Errorf("test data root not reported as missing:\n%s", out)
	}
	if !strings.Contains(out, "Metrics:       disabled") {
		t.Errorf("disabled metrics not reported:\n%s", out)
	}
}

func TestShutdownRunsEveryStep(t *testing.T) {
	buf := captureLog(t)

	var ran []string
	s := BeginShutdown("SIGTERM")
	s.Step("http", func() error { ran = append(ran, "http"); return nil })
	s.Step("indexer", func() error { ran = append(ran, "indexer"); return errors.New("still scanning") })
	s.Step("database", func() error { ran = append(ran, "database"); return nil })
	s.Finish()

	if strings.Join(ran, ",") != "http,indexer,database" {
		t.Errorf("steps ran as %v", ran)
	}
	if failed := s.Failed(); len(failed) != 1 || failed[0] != "indexer" {
		t.Errorf("Failed() = %v, want [indexer]", failed)
	}
	out := buf.String()
	if !strings.Contains(out, "[FAIL] indexer: still scanning") {
		t.Errorf("failed step not logged:\n%s", out)
	}
	if !strings.Contains(out, "1 failed steps") {
		t.Errorf("summary missing failure count:\n%s", out)
	}
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	level := logging.GetLevel()
	logging.SetLevel(logging.LevelInfo)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		logging.SetLevel(level)
	})
	return &buf
}
