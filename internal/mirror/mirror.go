// Package mirror copies every row of an upstream table into the snapshot
// tree, one canonical file per row.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/srcf/srcf-sync/internal/contract"
	"github.com/srcf/srcf-sync/internal/snapshot"
	"github.com/srcf/srcf-sync/internal/upstream"
)

// RowSource yields the rows of an upstream table.
// *upstream.Source implements it.
type RowSource interface {
	Rows(ctx context.Context, table, idColumn string) ([]upstream.Row, error)
}

// RunIDGenerator creates identifiers for mirror runs.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails.
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Options selects what one run mirrors.
type Options struct {
	Root        string // repository root
	SourceTable string // upstream table name
	Table       string // snapshot table slug; derived from SourceTable when empty
	IDColumn    string // defaults to "id"
	System      string // defaults to contract.DefaultSystem
}

// Report summarizes a completed run.
type Report struct {
	RunID   string            `json:"run_id"`
	Table   string            `json:"table"`
	Written []snapshot.Result `json:"written"`
}

// Mirror writes upstream rows as snapshots.
type Mirror struct {
	source RowSource
	writer *snapshot.Writer
	logger *slog.Logger
	runIDs RunIDGenerator
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithRunIDGenerator replaces the UUIDv7 run id generator.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(m *Mirror) {
		m.runIDs = gen
	}
}

// New creates a Mirror reading from source and writing through writer.
// A nil logger means slog.Default().
func New(source RowSource, writer *snapshot.Writer, logger *slog.Logger, opts ...Option) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mirror{
		source: source,
		writer: writer,
		logger: logger,
		runIDs: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run reads every row of opts.SourceTable and writes one snapshot per row.
// It stops at the first failure or when ctx is cancelled; files written
// before that point stay in place and are listed in the partial Report.
func (m *Mirror) Run(ctx context.Context, opts Options) (*Report, error) {
	table := opts.Table
	if table == "" {
		slug, err := contract.Slugify(opts.SourceTable)
		if err != nil {
			return nil, err
		}
		table = slug
	}
	if err := contract.CheckTable(table); err != nil {
		return nil, err
	}
	idColumn := opts.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}
	system := opts.System
	if system == "" {
		system = contract.DefaultSystem
	}

	report := &Report{RunID: m.runIDs.Generate(), Table: table}
	logger := m.logger.With("run_id", report.RunID, "table", table)
	logger.Info("mirror started", "source_table", opts.SourceTable, "id_column", idColumn)
	start := time.Now()

	rows, err := m.source.Rows(ctx, opts.SourceTable, idColumn)
	if err != nil {
		return report, fmt.Errorf("read upstream rows: %w", err)
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			logger.Warn("mirror cancelled", "written", len(report.Written))
			return report, err
		}

		res, err := m.writer.Write(snapshot.Request{
			Root:   opts.Root,
			Table:  table,
			RowID:  row.ID,
			Record: row.Record,
			System: system,
		})
		if err != nil {
			logger.Error("mirror failed", "row_id", row.ID, "error", err)
			return report, fmt.Errorf("row %q: %w", row.ID, err)
		}
		report.Written = append(report.Written, *res)
	}

	logger.Info("mirror finished",
		"rows", len(report.Written),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}
