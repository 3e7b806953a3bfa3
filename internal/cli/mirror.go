package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/srcf/srcf-sync/internal/mirror"
	"github.com/srcf/srcf-sync/internal/snapshot"
	"github.com/srcf/srcf-sync/internal/upstream"
)

// MirrorOptions holds flags for the mirror-v1 command.
type MirrorOptions struct {
	*RootOptions
	Driver      string
	DSN         string
	SourceTable string
	Table       string
	IDColumn    string
	System      string
	OutRoot     string
}

// NewMirrorCommand creates the mirror-v1 command.
func NewMirrorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MirrorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mirror-v1",
		Short: "Snapshot every row of an upstream table",
		Long: `Read every row of an upstream database table and write one v1 snapshot
per row. The table slug defaults to a slugified form of the source table
name. The run stops at the first row that cannot be written.

Example:
  srcf-sync mirror-v1 --driver sqlite3 --dsn ./baserow.db --source-table People
  srcf-sync mirror-v1 --driver postgres --dsn "postgres://localhost/baserow" --source-table orders --table orders-2024`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMirror(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "database driver (sqlite3|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	cmd.Flags().StringVar(&opts.SourceTable, "source-table", "", "upstream table name (required)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table slug (default: slugified source table)")
	cmd.Flags().StringVar(&opts.IDColumn, "id-column", "id", "column holding the row id")
	cmd.Flags().StringVar(&opts.System, "system", "", "upstream system identifier (default: baserow)")
	cmd.Flags().StringVar(&opts.OutRoot, "out-root", ".", "repo root to write into")
	_ = cmd.MarkFlagRequired("source-table")

	return cmd
}

func runMirror(opts *MirrorOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	cfg := opts.Config

	driver := stringOption(cmd, "driver", opts.Driver, cfg.Source.Driver)
	dsn := stringOption(cmd, "dsn", opts.DSN, cfg.Source.DSN)
	if driver == "" || dsn == "" {
		return NewExitError(ExitCommandError, "--driver and --dsn are required unless set in the config source")
	}

	src, err := upstream.Open(driver, dsn)
	if err != nil {
		_ = formatter.Error(ErrCodeSource, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to open source", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			opts.Logger.Error("error closing source", "error", closeErr)
		}
	}()

	// Stop between rows on interrupt
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mirrorOpts []mirror.Option
	if opts.RunIDs != nil {
		mirrorOpts = append(mirrorOpts, mirror.WithRunIDGenerator(opts.RunIDs))
	}
	writer := snapshot.NewWriter(opts.Clock, snapshot.WithLogger(opts.Logger))
	m := mirror.New(src, writer, opts.Logger, mirrorOpts...)

	report, err := m.Run(ctx, mirror.Options{
		Root:        stringOption(cmd, "out-root", opts.OutRoot, cfg.OutRoot),
		SourceTable: opts.SourceTable,
		Table:       opts.Table,
		IDColumn:    stringOption(cmd, "id-column", opts.IDColumn, cfg.Source.IDColumn),
		System:      stringOption(cmd, "system", opts.System, cfg.System),
	})
	if err != nil {
		return formatter.Fail("mirror run failed", err)
	}

	paths := make([]string, 0, len(report.Written))
	for _, res := range report.Written {
		paths = append(paths, res.Path)
	}
	return formatter.Success(report, paths)
}
