package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/srcf/srcf-sync/internal/clock"
	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
	"github.com/srcf/srcf-sync/internal/snapshot"
)

// Epoch is the instant every Tree clock starts at.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Tree is a throwaway repository root for snapshot tests.
//
// All snapshots written through Write are stamped with Clock, which starts
// at Epoch, so their bytes are reproducible across runs.
type Tree struct {
	t     testing.TB
	Root  string
	Clock *clock.FixedClock
}

// NewTree creates an empty root under t.TempDir().
func NewTree(t testing.TB) *Tree {
	t.Helper()
	return &Tree{t: t, Root: t.TempDir(), Clock: clock.Fixed(Epoch)}
}

// Write persists a conforming snapshot and returns its path.
func (tr *Tree) Write(table, rowID string, record any) string {
	tr.t.Helper()
	path, err := snapshot.BuildAndWrite(tr.Root, table, rowID, record, contract.DefaultSystem, tr.Clock)
	require.NoError(tr.t, err)
	return path
}

// WriteRaw places data at rel below snapshots/v1, bypassing the writer.
// Use it to plant nonconforming files.
func (tr *Tree) WriteRaw(rel string, data []byte) string {
	tr.t.Helper()
	path := filepath.Join(contract.TreeDir(tr.Root), filepath.FromSlash(rel))
	require.NoError(tr.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tr.t, os.WriteFile(path, data, 0o644))
	return path
}

// WriteDoc canonically encodes doc and places it at rel, bypassing the
// writer's input checks.
func (tr *Tree) WriteDoc(rel string, doc jcs.Value) string {
	tr.t.Helper()
	data, err := jcs.Encode(doc)
	require.NoError(tr.t, err)
	return tr.WriteRaw(rel, data)
}

// Read returns the bytes of the file at path.
func (tr *Tree) Read(path string) []byte {
	tr.t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(tr.t, err)
	return data
}

// Doc returns a conforming snapshot document for (table, rowID) stamped at
// Epoch, for tests that mutate one field at a time.
func Doc(table, rowID string, record jcs.Object) jcs.Object {
	return jcs.Object{
		"schema": jcs.String(contract.SchemaV1),
		"source": jcs.Object{
			"system":       jcs.String(contract.DefaultSystem),
			"table":        jcs.String(table),
			"row_id":       jcs.String(rowID),
			"generated_at": jcs.String(snapshot.FormatTimestamp(Epoch)),
			"civil_tz":     jcs.String(contract.CivilTZ),
		},
		"record": record,
	}
}
