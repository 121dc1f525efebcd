package runstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/corvid9/snakepilot/harness"
)

func TestWriteBatchProducesAParquetFile(t *testing.T) {
	dir := t.TempDir()
	results := []harness.RunResult{
		{RunIndex: 0, Steps: 100, Fruits: 4, Reason: "step-limit"},
		{RunIndex: 1, Steps: 144, Fruits: 144, Filled: true, Reason: "filled"},
	}

	path, err := WriteBatch(dir, results)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if path == "" {
		t.Fatal("expected a non-empty output path")
	}
	if filepath.Dir(path) != mustAbs(t, dir) {
		t.Fatalf("output path %q is not inside %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "tmp")); err != nil {
		t.Fatalf("expected tmp dir to exist: %v", err)
	}
}

func TestWriteBatchWithNoResultsWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteBatch(dir, nil)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if path != "" {
		t.Fatalf("expected empty path for zero results, got %q", path)
	}
}

func TestWriterRejectsEmptyOutDir(t *testing.T) {
	if _, err := NewWriter(""); err == nil {
		t.Fatal("expected an error for an empty outDir")
	}
}

func TestWriterCloseIsIdempotentAfterSuccess(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteResults([]harness.RunResult{{RunIndex: 0, Steps: 1}}); err != nil {
		t.Fatalf("WriteResults: %v", err)
	}
	if _, rows, err := w.Close(); err != nil || rows != 1 {
		t.Fatalf("Close = (rows=%d, err=%v), want (1, nil)", rows, err)
	}
	if _, _, err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}

func TestRowFromConvertsAllFields(t *testing.T) {
	r := harness.RunResult{RunIndex: 3, Steps: 50, Fruits: 9, Filled: true, Crashed: false, Reason: "filled", SurvivalBuffer: 7}
	row := RowFrom(r)
	if row.RunIndex != 3 || row.Steps != 50 || row.Fruits != 9 || !row.Filled || row.Reason != "filled" || row.SurvivalBuffer != 7 {
		t.Fatalf("RowFrom = %+v, unexpected field mismatch from %+v", row, r)
	}
}

func mustAbs(t *testing.T, dir string) string {
	t.Helper()
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("filepath.Abs: %v", err)
	}
	return abs
}
