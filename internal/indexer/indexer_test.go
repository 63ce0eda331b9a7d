package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dicom-viewer/internal/dicommeta"
	"dicom-viewer/internal/dicommeta/dicomtest"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestIndexer(t *testing.T, files map[string]string) (*Indexer, string) {
	t.Helper()
	root := t.TempDir()
	writeCorpus(t, root, files)

	idx := New(&fakeProber{}, Options{
		DicomDir:    root,
		TestDataDir: filepath.Join(t.TempDir(), "fixtures"),
		Scanner:     ScannerConfig{NumWorkers: 2},
	})
	t.Cleanup(idx.Stop)
	return idx, root
}

func TestIndexerStartLoadsPrimary(t *testing.T) {
	idx, _ := newTestIndexer(t, map[string]string{"IM1": "S1|R1|1|0", "IM2": "S1|R1|2|1"})

	if idx.IsReady() {
		t.Error("indexer ready before start")
	}

	completed := make(chan struct{}, 1)
	idx.SetOnIndexComplete(func() { completed <- struct{}{} })

	if err := idx.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatal("initial index did not complete")
	}
	waitFor(t, idx.IsReady)

	if got := idx.Library().Stats().Images; got != 2 {
		t.Errorf("images = %d, want 2", got)
	}

	status := idx.GetHealthStatus()
	if !status.Ready || status.Index.Studies != 1 || status.LastIndexed.IsZero() {
		t.Errorf("unexpected health status %+v", status)
	}
	if status.LastScan.Indexed != 2 {
		t.Errorf("LastScan.Indexed = %d, want 2", status.LastScan.Indexed)
	}
}

func TestIndexerInitialErrorReported(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{"not-a-dir": "x"})

	idx := New(&fakeProber{}, Options{DicomDir: filepath.Join(root, "not-a-dir")})
	t.Cleanup(idx.Stop)

	if err := idx.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return idx.GetHealthStatus().InitialIndexError != "" })

	if idx.IsReady() {
		t.Error("indexer reported ready after a failed initial load")
	}
	if idx.GetHealthStatus().Ready {
		t.Error("health status reported ready after a failed initial load")
	}
}

func TestIndexerReadyAfterRecoveringScan(t *testing.T) {
	root := t.TempDir()
	dicomDir := filepath.Join(root, "dicom")
	writeCorpus(t, root, map[string]string{"dicom": "x"})

	idx := New(&fakeProber{}, Options{DicomDir: dicomDir})
	t.Cleanup(idx.Stop)

	if err := idx.Index(ModeLoad); err == nil {
		t.Fatal("expected error while the root is a file")
	}
	if idx.IsReady() {
		t.Fatal("ready after failed load")
	}

	if err := os.Remove(dicomDir); err != nil {
		t.Fatal(err)
	}
	writeCorpus(t, dicomDir, map[string]string{"IM1": "S1|R1|1|0"})
	if err := idx.Index(ModeRefresh); err != nil {
		t.Fatal(err)
	}
	if !idx.IsReady() {
		t.Error("not ready after a successful refresh")
	}
}

func TestIndexerTriggerModes(t *testing.T) {
	idx, root := newTestIndexer(t, map[string]string{"a/IM1": "S1|R1|1|0"})

	if err := idx.Index(ModeLoad); err != nil {
		t.Fatal(err)
	}

	writeCorpus(t, root, map[string]string{"b/IM1": "S2|R2|1|0"})
	idx.TriggerIndex(ModeMerge)
	waitFor(t, func() bool { return idx.Library().Len() == 2 })

	if err := idx.Index(ModeRefresh); err != nil {
		t.Fatal(err)
	}
	if idx.Library().Len() != 2 {
		t.Errorf("studies = %d, want 2", idx.Library().Len())
	}

	if err := idx.Index("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestIndexerSkipsWhenRunning(t *testing.T) {
	idx, _ := newTestIndexer(t, nil)

	if !idx.tryStartIndexing() {
		t.Fatal("tryStartIndexing failed on idle indexer")
	}
	if err := idx.Index(ModeRefresh); err != nil {
		t.Errorf("skipped index returned error: %v", err)
	}
	if !idx.GetHealthStatus().LastIndexed.IsZero() {
		t.Error("index ran while another was in progress")
	}
	idx.finishIndexing()

	if idx.IsIndexing() {
		t.Error("IsIndexing true after finish")
	}
}

func TestValidTriggerMode(t *testing.T) {
	tests := map[string]bool{
		ModeRefresh: true,
		ModeMerge:   true,
		ModeLoad:    false,
		"":          false,
		"full":      false,
	}
	for mode, want := range tests {
		if got := ValidTriggerMode(mode); got != want {
			t.Errorf("ValidTriggerMode(%q) = %v, want %v", mode, got, want)
		}
	}
}

func TestIndexerFixtureCorpusIsIndependent(t *testing.T) {
	primary := t.TempDir()
	fixtures := t.TempDir()
	writeCorpus(t, primary, map[string]string{"IM1": "P1|R1|1|0"})
	writeCorpus(t, fixtures, map[string]string{"IM1": "F1|R1|1|0", "IM2": "F2|R1|1|0"})

	idx := New(&fakeProber{}, Options{DicomDir: primary, TestDataDir: fixtures})
	t.Cleanup(idx.Stop)

	if err := idx.Index(ModeLoad); err != nil {
		t.Fatal(err)
	}
	testData, err := idx.TestData(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if idx.Library().Len() != 1 || testData.Len() != 2 {
		t.Errorf("primary = %d studies, fixture = %d studies", idx.Library().Len(), testData.Len())
	}
	if !idx.TestDataAvailable() {
		t.Error("fixture root should be available")
	}
}

func TestIndexerTestDataMountedLater(t *testing.T) {
	idx, _ := newTestIndexer(t, nil)

	empty, err := idx.TestData(context.Background())
	if err != nil {
		t.Fatalf("TestData with missing root: %v", err)
	}
	if empty.Len() != 0 || idx.TestDataAvailable() {
		t.Fatalf("expected empty fixture index, got %d studies", empty.Len())
	}

	writeCorpus(t, idx.TestDataDir(), map[string]string{"IM1": "F1|R1|1|0"})

	testData, err := idx.TestData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if testData.Len() != 1 {
		t.Errorf("fixture studies = %d after mounting, want 1", testData.Len())
	}
}

type reportingGate struct{}

func (reportingGate) WaitIfPaused(context.Context) error { return nil }
func (reportingGate) IsPaused() bool                     { return true }
func (reportingGate) Usage() float64                     { return 0.9 }
func (reportingGate) Limit() int64                       { return 1 << 30 }

func TestHealthStatusReportsCorporaAndMemory(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{"IM1": "S1|R1|1|0"})

	idx := New(&fakeProber{}, Options{
		DicomDir:    root,
		TestDataDir: filepath.Join(root, "fixtures"),
		Scanner:     ScannerConfig{Gate: reportingGate{}},
	})
	t.Cleanup(idx.Stop)

	if err := idx.Index(ModeLoad); err != nil {
		t.Fatal(err)
	}
	status := idx.GetHealthStatus()

	if len(status.Corpora) != 2 {
		t.Fatalf("corpora = %d, want 2", len(status.Corpora))
	}
	primary, fixture := status.Corpora[0], status.Corpora[1]
	if primary.Name != CorpusPrimary || !primary.Loaded || primary.LastLoaded.IsZero() {
		t.Errorf("unexpected primary status %+v", primary)
	}
	if fixture.Name != CorpusFixture || fixture.Loaded {
		t.Errorf("unexpected fixture status %+v", fixture)
	}

	if status.Memory == nil {
		t.Fatal("memory status missing for a reporting gate")
	}
	if !status.Memory.Paused || status.Memory.Usage != 0.9 || status.Memory.LimitBytes != 1<<30 {
		t.Errorf("unexpected memory status %+v", status.Memory)
	}
}

func TestHealthStatusWithoutGateOmitsMemory(t *testing.T) {
	idx, _ := newTestIndexer(t, nil)
	if idx.GetHealthStatus().Memory != nil {
		t.Error("memory status reported without a gate")
	}
}

func TestIndexerPeriodicRefresh(t *testing.T) {
	root := t.TempDir()
	writeCorpus(t, root, map[string]string{"IM1": "S1|R1|1|0"})

	idx := New(&fakeProber{}, Options{DicomDir: root, IndexInterval: 20 * time.Millisecond})
	t.Cleanup(idx.Stop)

	if err := idx.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, idx.IsReady)

	writeCorpus(t, root, map[string]string{"IM2": "S2|R1|1|0"})
	waitFor(t, func() bool { return idx.Library().Len() == 2 })
}

func TestIndexerWithDICOMFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	root := t.TempDir()
	slices := []struct {
		name     string
		instance string
		location string
	}{
		{"IM_A", "2", "10.0"},
		{"IM_B", "1", "5.0"},
	}
	writeCorpus(t, root, map[string]string{"study/corrupt.dcm": "DICM but not really"})
	for _, s := range slices {
		err := dicomtest.WriteFile(filepath.Join(root, "study", s.name), dicommeta.Header{
			dicommeta.FieldStudyInstanceUID:  "1.2.826.0.1.1",
			dicommeta.FieldSeriesInstanceUID: "1.2.826.0.1.1.1",
			dicommeta.FieldPatientName:       "Test^Patient",
			dicommeta.FieldModality:          "CT",
			dicommeta.FieldInstanceNumber:    s.instance,
			dicommeta.FieldSliceLocation:     s.location,
		})
		if err != nil {
			t.Fatalf("failed to write %s: %v", s.name, err)
		}
	}

	prober, err := dicommeta.NewProber(dicommeta.DICOMReader{}, dicommeta.DefaultCacheSize)
	if err != nil {
		t.Fatal(err)
	}

	idx, err := NewScanner(prober, DefaultScannerConfig()).Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	summaries := idx.Summaries()
	if len(summaries) != 1 {
		t.Fatalf("studies = %d, want 1", len(summaries))
	}
	if summaries[0].PatientName != "Test^Patient" || summaries[0].ImageCount != 2 {
		t.Errorf("unexpected summary %+v", summaries[0])
	}

	study := idx.Studies()[0]
	series := study.SeriesList()[0]
	if series.Slices[0].InstanceNumber != 1 || series.Slices[1].InstanceNumber != 2 {
		t.Errorf("slice order = %+v", series.Slices)
	}
}
