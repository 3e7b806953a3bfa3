package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srcf/srcf-sync/internal/validate"
)

// ValidateOptions holds flags for the validate-v1 command.
type ValidateOptions struct {
	*RootOptions
	OutRoot string
	Workers int
}

// ValidationResult is the JSON payload of validate-v1.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Findings []validate.Finding `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate-v1 command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate-v1",
		Short: "Validate snapshots/v1 against the v1 contract",
		Long: `Check every *.json file under <out-root>/snapshots/v1 for canonical
encoding, required metadata and path agreement.

Prints one line per nonconforming file and exits 1 if there are any.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutRoot, "out-root", ".", "repo root to validate")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "files checked concurrently (0 = GOMAXPROCS)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	workers := opts.Workers
	if !cmd.Flags().Changed("workers") {
		workers = opts.Config.Workers
	}
	if workers < 0 {
		return NewExitError(ExitCommandError, "--workers must be >= 0")
	}

	root := stringOption(cmd, "out-root", opts.OutRoot, opts.Config.OutRoot)
	validator := validate.New(validate.WithWorkers(workers), validate.WithLogger(opts.Logger))
	findings := validator.Validate(root)
	formatter.VerboseLog("Validated %s: %d finding(s)", root, len(findings))

	if len(findings) == 0 {
		if opts.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true}, nil)
		}
		return nil
	}

	message := fmt.Sprintf("%d finding(s)", len(findings))
	if opts.Format == "json" {
		_ = formatter.Error(ErrCodeFindings, message, ValidationResult{Findings: findings})
	} else {
		for _, f := range findings {
			fmt.Fprintln(formatter.Writer, f.String())
		}
	}
	return NewExitError(ExitFailure, message)
}
