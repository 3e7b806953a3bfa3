package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/srcf/srcf-sync/internal/clock"
	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
)

// Request describes one row to persist.
type Request struct {
	Root   string // repository root; snapshots land under Root/snapshots/v1
	Table  string // table slug
	RowID  string
	Record any // jcs.Value or plain Go value
	System string
}

// Result describes a written snapshot file.
type Result struct {
	Path        string `json:"path"`
	Digest      string `json:"digest"`
	Size        int    `json:"size"`
	GeneratedAt string `json:"generated_at"`
}

// Writer persists snapshots. The clock is injected so generated_at is
// deterministic under test.
type Writer struct {
	clock  clock.Clock
	logger *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger for write events.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer stamping snapshots with clk.
func NewWriter(clk clock.Clock, opts ...WriterOption) *Writer {
	w := &Writer{clock: clk, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write builds the snapshot for req and writes its canonical bytes to the
// contract path, replacing any previous file there.
//
// InputError and EncodingError are returned before the filesystem is
// touched. I/O failures are wrapped and returned as-is.
func (w *Writer) Write(req Request) (*Result, error) {
	path, err := contract.SnapshotPath(req.Root, req.Table, req.RowID)
	if err != nil {
		return nil, err
	}

	now := w.clock.Now()
	doc, err := Build(req.Table, req.RowID, req.Record, req.System, now)
	if err != nil {
		return nil, err
	}
	data, err := jcs.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s/%s: %w", req.Table, req.RowID, err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}

	res := &Result{
		Path:        path,
		Digest:      Digest(data),
		Size:        len(data),
		GeneratedAt: FormatTimestamp(now),
	}
	w.logger.Debug("snapshot written",
		"path", res.Path,
		"table", req.Table,
		"row_id", req.RowID,
		"bytes", res.Size,
		"digest", res.Digest,
	)
	return res, nil
}

// BuildAndWrite writes one snapshot stamped by clk and returns its path.
func BuildAndWrite(root, table, rowID string, record any, system string, clk clock.Clock) (string, error) {
	res, err := NewWriter(clk).Write(Request{
		Root:   root,
		Table:  table,
		RowID:  rowID,
		Record: record,
		System: system,
	})
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// writeFileAtomic creates parent directories as needed, writes data to a
// hidden sibling and renames it over path. The temporary name does not end
// in .json, so an interrupted write is never mistaken for a snapshot.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
