// Package runstore persists harness.RunResult rows to columnar Parquet
// files, grounded on this codebase's own parquet-go-based store package:
// buffered batches, zstd compression, and an atomic write-to-tmp-then-rename
// so readers never observe a partially written file.
package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/corvid9/snakepilot/harness"
)

// RunRow is one harness.RunResult flattened for columnar storage.
type RunRow struct {
	RunIndex       int32  `parquet:"run_index"`
	Steps          int32  `parquet:"steps"`
	Fruits         int32  `parquet:"fruits"`
	Filled         bool   `parquet:"filled"`
	Crashed        bool   `parquet:"crashed"`
	Reason         string `parquet:"reason,dict"`
	SurvivalBuffer int32  `parquet:"survival_buffer"`
}

// RowFrom converts one harness.RunResult into its storage row.
func RowFrom(r harness.RunResult) RunRow {
	return RunRow{
		RunIndex:       int32(r.RunIndex),
		Steps:          int32(r.Steps),
		Fruits:         int32(r.Fruits),
		Filled:         r.Filled,
		Crashed:        r.Crashed,
		Reason:         r.Reason,
		SurvivalBuffer: int32(r.SurvivalBuffer),
	}
}

// Writer buffers RunRows and flushes them to a single zstd-compressed
// parquet file on Close. It writes to a tmp/ subdirectory of outDir and
// renames into place, the same pattern scraper/store.BatchWriter uses for
// self-play archives.
type Writer struct {
	outDir  string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[RunRow]

	bufferedRows int
}

// NewWriter opens a new batch file under outDir/tmp, to be renamed into
// outDir on Close.
func NewWriter(outDir string) (*Writer, error) {
	if outDir == "" {
		return nil, fmt.Errorf("runstore: outDir is required")
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("runstore: create tmp dir: %w", err)
	}

	name := fmt.Sprintf("harness_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)
	outPath := filepath.Join(absOut, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("runstore: open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[RunRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", "run_row_v1")

	return &Writer{
		outDir:  absOut,
		tmpPath: tmpPath,
		outPath: outPath,
		file:    f,
		writer:  w,
	}, nil
}

// OutPath returns the final path the archive will be renamed to on Close.
func (w *Writer) OutPath() string { return w.outPath }

// BufferedRows returns how many rows have been written so far.
func (w *Writer) BufferedRows() int { return w.bufferedRows }

// WriteResults converts and writes a batch of harness.RunResults.
func (w *Writer) WriteResults(results []harness.RunResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([]RunRow, len(results))
	for i, r := range results {
		rows[i] = RowFrom(r)
	}
	return w.WriteRows(rows)
}

// WriteRows appends rows to the open batch.
func (w *Writer) WriteRows(rows []RunRow) error {
	if w.writer == nil || w.file == nil {
		return fmt.Errorf("runstore: writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := w.writer.Write(rows); err != nil {
		return fmt.Errorf("runstore: write rows: %w", err)
	}
	w.bufferedRows += len(rows)
	return nil
}

// Close flushes and closes the parquet writer, then atomically moves the
// file from tmp/ into outDir. If no rows were written the tmp file is
// removed and outPath is returned empty.
func (w *Writer) Close() (outPath string, rows int, err error) {
	if w.writer == nil && w.file == nil {
		return "", 0, nil
	}

	rows = w.bufferedRows
	outPath = w.outPath

	var closeErr error
	if w.writer != nil {
		closeErr = w.writer.Close()
		w.writer = nil
	}
	var fileErr error
	if w.file != nil {
		_ = w.file.Sync()
		fileErr = w.file.Close()
		w.file = nil
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("runstore: close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, fmt.Errorf("runstore: close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(w.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(w.tmpPath, w.outPath); err != nil {
		return "", 0, fmt.Errorf("runstore: rename parquet: %w", err)
	}
	return outPath, rows, nil
}

// WriteBatch is a convenience one-shot: open a Writer, write every result,
// and close it, returning the final archive path (empty if there was
// nothing to write).
func WriteBatch(outDir string, results []harness.RunResult) (string, error) {
	w, err := NewWriter(outDir)
	if err != nil {
		return "", err
	}
	if err := w.WriteResults(results); err != nil {
		_, _, _ = w.Close()
		return "", err
	}
	path, _, err := w.Close()
	return path, err
}
