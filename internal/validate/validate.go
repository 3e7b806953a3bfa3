package validate

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
)

// Validator checks a snapshot tree against the v1 contract.
// It holds no state between calls and never writes.
type Validator struct {
	workers int
	logger  *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithWorkers bounds how many files are checked concurrently.
// n <= 0 selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(v *Validator) {
		v.workers = n
	}
}

// WithLogger sets the logger for scan events.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	if v.workers <= 0 {
		v.workers = runtime.GOMAXPROCS(0)
	}
	return v
}

// Validate checks the tree under root with default options.
func Validate(root string) []Finding {
	return New().Validate(root)
}

// entry is one unit of scan work: a file to check, or a finding already
// produced while walking.
type entry struct {
	path    string
	finding *Finding
}

// Validate walks root/snapshots/v1 and checks every *.json file.
//
// A file problem never stops the scan: each file contributes at most one
// finding, and findings are returned in lexical walk order. An empty result
// means the tree conforms. If the tree directory itself is missing, the
// single result is a KindMissingTree finding.
func (v *Validator) Validate(root string) []Finding {
	base := contract.TreeDir(root)
	info, err := os.Stat(base)
	if err != nil {
		return []Finding{*finding(base, KindMissingTree, "missing snapshots/v1: %v", err)}
	}
	if !info.IsDir() {
		return []Finding{*finding(base, KindMissingTree, "snapshots/v1 is not a directory")}
	}

	entries := collect(base)
	v.logger.Debug("validating snapshot tree", "dir", base, "files", len(entries), "workers", v.workers)

	work := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < v.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				entries[idx].finding = checkFile(root, entries[idx].path)
			}
		}()
	}
	for idx := range entries {
		if entries[idx].finding == nil {
			work <- idx
		}
	}
	close(work)
	wg.Wait()

	var findings []Finding
	for _, e := range entries {
		if e.finding != nil {
			findings = append(findings, *e.finding)
		}
	}
	v.logger.Debug("snapshot tree validated", "dir", base, "findings", len(findings))
	return findings
}

// collect lists every non-directory *.json entry under base. Unreadable
// directories become KindRead findings rather than aborting the walk.
func collect(base string) []entry {
	var entries []entry
	_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			entries = append(entries, entry{path: path, finding: finding(path, KindRead, "cannot read: %v", err)})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), contract.FileExt) {
			return nil
		}
		entries = append(entries, entry{path: path})
		return nil
	})
	return entries
}

// checkFile applies the contract rules to one file in order and returns the
// first violation, or nil if the file conforms.
func checkFile(root, path string) *Finding {
	raw, err := os.ReadFile(path)
	if err != nil {
		return finding(path, KindRead, "cannot read: %v", err)
	}

	doc, err := jcs.Parse(raw)
	if err != nil {
		return finding(path, KindParse, "%v", err)
	}

	// Re-deriving the canonical bytes checks whitespace, key order, escaping
	// and number formatting all at once.
	canon, err := jcs.Encode(doc)
	if err != nil {
		return finding(path, KindNotCanonical, "%v", err)
	}
	if !bytes.Equal(raw, canon) {
		return finding(path, KindNotCanonical,
			"not RFC 8785 canonical bytes (re-serialization differs at byte %d)", firstDiff(raw, canon))
	}

	obj, ok := doc.(jcs.Object)
	if !ok {
		return finding(path, KindShape, "top-level must be object")
	}

	if schema, ok := obj["schema"].(jcs.String); !ok || string(schema) != contract.SchemaV1 {
		return finding(path, KindSchema, "schema must be %q", contract.SchemaV1)
	}

	source, ok := obj["source"].(jcs.Object)
	if !ok {
		return finding(path, KindMetadata, "source must be object")
	}
	if tz, ok := source["civil_tz"].(jcs.String); !ok || string(tz) != contract.CivilTZ {
		return finding(path, KindMetadata, "source.civil_tz must be %q", contract.CivilTZ)
	}

	generatedAt, ok := source["generated_at"].(jcs.String)
	if !ok || !strings.HasSuffix(string(generatedAt), "Z") || !strings.Contains(string(generatedAt), "T") {
		return finding(path, KindTimestamp, "source.generated_at must be RFC3339 with 'Z'")
	}

	table, tableOK := source["table"].(jcs.String)
	rowID, rowOK := source["row_id"].(jcs.String)
	if !tableOK || !rowOK {
		return finding(path, KindMetadata, "source.table and source.row_id must be strings")
	}

	expected, err := contract.SnapshotPath(root, string(table), string(rowID))
	if err != nil {
		return finding(path, KindPathMismatch, "no legal path for source: %v", err)
	}
	if resolved := resolve(expected); resolved != resolve(path) {
		return finding(path, KindPathMismatch, "path mismatch (expected %s)", resolved)
	}

	if _, ok := obj["record"].(jcs.Object); !ok {
		return finding(path, KindShape, "record must be object")
	}
	return nil
}

// resolve returns path in absolute form with symlinks evaluated. Components
// that do not exist are appended unresolved to their deepest existing
// ancestor.
func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
		return evaluated
	}

	dir, rest := filepath.Dir(abs), filepath.Base(abs)
	for dir != filepath.Dir(dir) {
		if evaluated, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(evaluated, rest)
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = filepath.Dir(dir)
	}
	return abs
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
