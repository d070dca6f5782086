package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canon/internal/canon"
)

// SignResult holds the sign command's output payload.
type SignResult struct {
	Title     string `json:"title"`
	Signature string `json:"signature"`
}

// NewSignCommand creates the sign command.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <declaration-dir>",
		Short: "Print a declaration's canonical signature",
		Long: `Compute the canonical signature of a declaration.

The signature hashes the structural identity of the declaration (title,
forms, relations, traces) over canonical JSON. Presentation fields like
meaning tags and notes do not contribute.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSign(opts *RootOptions, declDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	decl, err := loadDeclaration(formatter, declDir)
	if err != nil {
		return err
	}

	sig, err := canon.Signature(decl)
	if err != nil {
		_ = formatter.Error("SIGN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to compute signature", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SignResult{Title: decl.Title, Signature: sig})
	}

	fmt.Fprintln(formatter.Writer, sig)
	return nil
}
