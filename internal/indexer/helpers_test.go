package indexer

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dicom-viewer/internal/dicommeta"
)

// fakeProber reads "study|series|instance|location" from a file's content.
// Anything else is not indexable.
type fakeProber struct {
	calls atomic.Int64
	delay time.Duration
}

func (p *fakeProber) Probe(path string) (dicommeta.Attributes, bool) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return dicommeta.Attributes{}, false
	}
	parts := strings.Split(strings.TrimSpace(string(data)), "|")
	if len(parts) != 4 {
		return dicommeta.Attributes{}, false
	}

	instance, _ := strconv.Atoi(parts[2])
	location, _ := strconv.ParseFloat(parts[3], 64)
	attrs := dicommeta.Attributes{
		FilePath:          path,
		StudyInstanceUID:  parts[0],
		SeriesInstanceUID: parts[1],
		PatientName:       dicommeta.UnknownPatientName,
		InstanceNumber:    instance,
		SliceLocation:     location,
	}
	return attrs, attrs.Indexable()
}

func writeCorpus(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}
}

func testScanner(prober Prober) *Scanner {
	return NewScanner(prober, ScannerConfig{NumWorkers: 4})
}
