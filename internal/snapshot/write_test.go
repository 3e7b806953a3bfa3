package snapshot

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srcf/srcf-sync/internal/clock"
	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/jcs"
)

var newYear = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestWriter() *Writer {
	return NewWriter(clock.Fixed(newYear), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func assertGolden(t *testing.T, name string, data []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestBuildAndWritePeopleScenario(t *testing.T) {
	root := t.TempDir()

	path, err := BuildAndWrite(root, "people", "42",
		map[string]any{"name": "Ada", "age": 31}, "baserow", clock.Fixed(newYear))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "snapshots", "v1", "people", "42.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assertGolden(t, "people-42", data)

	parsed, err := jcs.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, jcs.Object{
		"record": jcs.Object{"age": jcs.Number(31), "name": jcs.String("Ada")},
		"schema": jcs.String(contract.SchemaV1),
		"source": jcs.Object{
			"civil_tz":     jcs.String("Europe/London"),
			"generated_at": jcs.String("2024-01-01T00:00:00Z"),
			"row_id":       jcs.String("42"),
			"system":       jcs.String("baserow"),
			"table":        jcs.String("people"),
		},
	}, parsed)
}

func TestWriteWrapsNonObjectRecord(t *testing.T) {
	root := t.TempDir()

	res, err := newTestWriter().Write(Request{
		Root:   root,
		Table:  "tags",
		RowID:  "7",
		Record: []any{1, "two", nil},
		System: contract.DefaultSystem,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assertGolden(t, "tags-7-raw", data)
}

func TestBuildWrapping(t *testing.T) {
	tests := []struct {
		name     string
		record   any
		expected jcs.Object
	}{
		{"object kept", map[string]any{"a": 1}, jcs.Object{"a": jcs.Number(1)}},
		{"value object kept", jcs.Object{"_raw": jcs.Bool(true)}, jcs.Object{"_raw": jcs.Bool(true)}},
		{"string wrapped", "hello", jcs.Object{"_raw": jcs.String("hello")}},
		{"number wrapped", 3.5, jcs.Object{"_raw": jcs.Number(3.5)}},
		{"null wrapped", nil, jcs.Object{"_raw": jcs.Null{}}},
		{"array wrapped", []any{}, jcs.Object{"_raw": jcs.Array{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Build("people", "1", tt.record, "baserow", newYear)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, doc["record"])
		})
	}
}

func TestWriteRejectsInvalidInputBeforeIO(t *testing.T) {
	tests := []struct {
		name  string
		table string
		rowID string
		field string
	}{
		{"uppercase table", "Foo_Bar", "42", "table"},
		{"leading hyphen", "-people", "42", "table"},
		{"parent row id", "people", "..", "row_id"},
		{"dot row id", "people", ".", "row_id"},
		{"slash row id", "people", "a/b", "row_id"},
		{"backslash row id", "people", `a\b`, "row_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()

			_, err := newTestWriter().Write(Request{
				Root:   root,
				Table:  tt.table,
				RowID:  tt.rowID,
				Record: map[string]any{},
				System: "baserow",
			})
			require.Error(t, err)

			var inputErr *contract.InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)

			assert.NoDirExists(t, filepath.Join(root, "snapshots"))
		})
	}
}

func TestWriteRejectsNonCanonicalizableBeforeIO(t *testing.T) {
	root := t.TempDir()

	_, err := newTestWriter().Write(Request{
		Root:   root,
		Table:  "people",
		RowID:  "1",
		Record: map[string]any{"score": math.Inf(1)},
		System: "baserow",
	})
	require.Error(t, err)

	var encErr *jcs.EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Contains(t, err.Error(), `object["score"]`)
	assert.NoDirExists(t, filepath.Join(root, "snapshots"))
}

func TestWriteRejectsUnsupportedRecord(t *testing.T) {
	root := t.TempDir()

	_, err := newTestWriter().Write(Request{
		Root:   root,
		Table:  "people",
		RowID:  "1",
		Record: map[int]string{1: "a"},
		System: "baserow",
	})
	var encErr *jcs.EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.NoDirExists(t, filepath.Join(root, "snapshots"))
}

func TestWriteReplacesPriorFile(t *testing.T) {
	root := t.TempDir()
	clk := clock.Fixed(newYear)
	w := NewWriter(clk, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	first, err := w.Write(Request{Root: root, Table: "people", RowID: "42", Record: map[string]any{"v": 1}, System: "baserow"})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	second, err := w.Write(Request{Root: root, Table: "people", RowID: "42", Record: map[string]any{"v": 2}, System: "baserow"})
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.NotEqual(t, first.Digest, second.Digest)
	assert.Equal(t, "2024-01-01T01:00:00Z", second.GeneratedAt)

	data, err := os.ReadFile(second.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"record":{"v":2}`)
	assert.Equal(t, second.Size, len(data))
	assert.Equal(t, Digest(data), second.Digest)

	entries, err := os.ReadDir(filepath.Dir(second.Path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temporary files may be left behind")
	assert.Equal(t, "42.json", entries[0].Name())

	info, err := os.Stat(second.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteNoTrailingNewline(t *testing.T) {
	root := t.TempDir()
	res, err := newTestWriter().Write(Request{Root: root, Table: "people", RowID: "1", Record: map[string]any{}, System: "baserow"})
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
	assert.Equal(t, byte('{'), data[0], "no BOM")
}

func TestFormatTimestamp(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2024-07-01 13:30:45.999 BST is 12:30:45 UTC; sub-seconds truncate.
	local := time.Date(2024, 7, 1, 13, 30, 45, 999_000_000, london)
	assert.Equal(t, "2024-07-01T12:30:45Z", FormatTimestamp(local))

	utc := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01T00:00:00Z", FormatTimestamp(utc))
}

func TestDigest(t *testing.T) {
	a := Digest([]byte(`{"a":1}`))
	b := Digest([]byte(`{"a":1}`))
	c := Digest([]byte(`{"a":2}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
