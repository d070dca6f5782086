package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
	"github.com/roach88/canon/internal/store"
)

// ArchivedVerdict is the verdict half of the runs command's payload.
type ArchivedVerdict struct {
	Verdict     canon.Verdict `json:"verdict"`
	ValidatedAt time.Time     `json:"validated_at"`
}

// RunsResult holds the runs command's output payload.
type RunsResult struct {
	Signature string             `json:"signature"`
	Verdict   *ArchivedVerdict   `json:"verdict,omitempty"`
	Runs      []engine.RunRecord `json:"runs,omitempty"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	var archivePath string

	cmd := &cobra.Command{
		Use:   "runs <signature>",
		Short: "Look up archived verdicts and realization runs",
		Long: `Look up the archive by declaration signature.

Prints the latest archived verdict for the signature and every
realization run recorded against it, oldest first. Signatures are the
16-hex values printed by "canon sign" and stamped into provenance.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, args[0], archivePath, cmd)
		},
	}

	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to read (required)")
	_ = cmd.MarkFlagRequired("archive")

	return cmd
}

func runRuns(opts *RootOptions, signature, archivePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(archivePath)
	if err != nil {
		_ = formatter.Error("ARCHIVE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer st.Close()

	result := RunsResult{Signature: signature}

	verdict, validatedAt, err := st.Verdict(cmd.Context(), signature)
	switch {
	case err == nil:
		result.Verdict = &ArchivedVerdict{Verdict: verdict, ValidatedAt: validatedAt}
	case errors.Is(err, store.ErrNotFound):
		// Bypassed runs archive without a verdict; keep looking.
	default:
		_ = formatter.Error("ARCHIVE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read archive", err)
	}

	result.Runs, err = st.Runs(cmd.Context(), signature)
	if err != nil {
		_ = formatter.Error("ARCHIVE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read archive", err)
	}

	if result.Verdict == nil && len(result.Runs) == 0 {
		_ = formatter.Error("NOTFOUND", fmt.Sprintf("nothing archived for signature %s", signature), nil)
		return NewExitError(ExitFailure, "signature not found in archive")
	}

	return outputRuns(formatter, result)
}

func outputRuns(formatter *OutputFormatter, result RunsResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "signature: %s\n", result.Signature)
	if v := result.Verdict; v != nil {
		mark := "✗"
		if v.Verdict.OK {
			mark = "✓"
		}
		fmt.Fprintf(formatter.Writer, "verdict: %s %s (%d findings, validated %s)\n",
			mark, v.Verdict.DeclarationTitle, len(v.Verdict.Findings),
			v.ValidatedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintln(formatter.Writer, "verdict: none archived")
	}

	fmt.Fprintf(formatter.Writer, "runs: %d\n", len(result.Runs))
	for _, run := range result.Runs {
		status := "ok"
		if !run.OK {
			status = fmt.Sprintf("%d error(s)", len(run.Errors))
		}
		if run.Bypassed {
			status += ", bypassed"
		}
		fmt.Fprintf(formatter.Writer, "  %s  %s  %s\n",
			run.CreatedAt.Format(time.RFC3339), run.RunID, status)
	}
	return nil
}
