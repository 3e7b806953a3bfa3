package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/srcf/srcf-sync/internal/clock"
	"github.com/srcf/srcf-sync/internal/config"
	"github.com/srcf/srcf-sync/internal/mirror"
)

// Version is the release reported by the version command.
var Version = "0.1.0"

// RootOptions holds global flags for all commands, plus the state
// PersistentPreRunE derives from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	Config config.Config
	Logger *slog.Logger

	// Clock stamps generated_at on written snapshots. Tests pin it.
	Clock clock.Clock
	// RunIDs overrides the mirror run id generator (for testing).
	// If nil, mirror runs use UUIDv7.
	RunIDs mirror.RunIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the srcf-sync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Clock: clock.Real()})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srcf-sync",
		Short: "srcf-sync - canonical snapshots of upstream rows",
		Long: `Mirror upstream table rows into a git-friendly tree of RFC 8785
canonical JSON snapshots, and validate that tree against the v1 contract.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMirrorCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// prepare loads the config file, applies it beneath explicit flags and
// installs the logger.
func (opts *RootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	opts.Config = cfg

	if !cmd.Flags().Changed("format") {
		opts.Format = cfg.Format
	}
	if !isValidFormat(opts.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	opts.Logger = slog.New(handler)

	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return nil
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return execute(ctx, NewRootCommand(), args, stdin, stdout, stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// stringOption returns the flag value when the user set it, else the
// configured fallback.
func stringOption(cmd *cobra.Command, name, flagValue, configured string) string {
	if cmd.Flags().Changed(name) || configured == "" {
		return flagValue
	}
	return configured
}
