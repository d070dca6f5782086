package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
	"github.com/roach88/canon/internal/realize"
	"github.com/roach88/canon/internal/store"
)

// RealizeResult holds the realize command's output payload.
type RealizeResult struct {
	Title      string                    `json:"title"`
	OK         bool                      `json:"ok"`
	Bypassed   bool                      `json:"bypassed"`
	Artifacts  map[string]any            `json:"artifacts,omitempty"`
	Provenance map[string]map[string]any `json:"provenance,omitempty"`
	Errors     []string                  `json:"errors,omitempty"`
}

// NewRealizeCommand creates the realize command.
func NewRealizeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		skipValidation bool
		allowBypass    bool
		lenient        bool
		archivePath    string
	)

	cmd := &cobra.Command{
		Use:   "realize <declaration-dir>",
		Short: "Validate a declaration and realize its forms",
		Long: `Validate a declaration and realize every form through the registry.

Realization refuses declarations that fail validation. The gate can be
bypassed only when BOTH --allow-bypass and --skip-validation are set;
bypassed runs are marked in their provenance.

The built-in realizer produces a realization plan per form (identity,
parameters, tolerance). Domain realizers are registered by embedding
programs, not by this command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRealize(rootOpts, args[0], skipValidation, allowBypass, lenient, archivePath, cmd)
		},
	}

	cmd.Flags().BoolVar(&skipValidation, "skip-validation", false, "skip validation for this call (requires --allow-bypass)")
	cmd.Flags().BoolVar(&allowBypass, "allow-bypass", false, "construct the engine with bypass permitted")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "treat ERROR findings as advisory")
	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive for verdicts and realization runs")

	return cmd
}

func runRealize(opts *RootOptions, declDir string, skipValidation, allowBypass, lenient bool, archivePath string, cmd *cobra.Command) error {
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

	engOpts := []engine.Option{}
	if lenient {
		engOpts = append(engOpts, engine.WithLenient())
	}
	if allowBypass {
		engOpts = append(engOpts, engine.WithBypassAllowed())
	}
	if archivePath != "" {
		st, err := store.Open(archivePath)
		if err != nil {
			_ = formatter.Error("ARCHIVE", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open archive", err)
		}
		defer st.Close()
		engOpts = append(engOpts, engine.WithArchive(st))
	}

	eng := engine.New(engOpts...)
	eng.RegisterRealizer(newPlanRealizer(decl))

	var realizeOpts []engine.RealizeOption
	if skipValidation {
		realizeOpts = append(realizeOpts, engine.SkipValidation())
	}

	result, err := eng.Realize(context.Background(), decl, realizeOpts...)
	if err != nil {
		return outputRealizeError(formatter, err)
	}

	return outputRealizeResult(formatter, result)
}

// outputRealizeError maps the engine's refusal errors to CLI output and
// exit codes.
func outputRealizeError(formatter *OutputFormatter, err error) error {
	if verdict, ok := engine.VerdictFrom(err); ok {
		fmt.Fprintln(formatter.Writer, "realization refused: declaration failed validation")
		if outErr := outputVerdict(formatter, verdict, ""); outErr != nil {
			return outErr
		}
		return NewExitError(ExitFailure, "realization refused")
	}
	if engine.IsBypassError(err) {
		_ = formatter.Error("BYPASS", err.Error(), nil)
		return WrapExitError(ExitCommandError, "bypass not permitted", err)
	}

	_ = formatter.Error("REALIZE", err.Error(), nil)
	return WrapExitError(ExitCommandError, "realization failed", err)
}

// outputRealizeResult prints a realization result. Per-form failures are
// partial: successful artifacts survive, and the exit code reports the
// failure.
func outputRealizeResult(formatter *OutputFormatter, result *realize.Result) error {
	if formatter.Format == "json" {
		payload := RealizeResult{
			Title:      result.DeclarationTitle,
			OK:         result.OK(),
			Bypassed:   result.Bypassed(),
			Artifacts:  result.Artifacts,
			Provenance: result.Provenance,
			Errors:     result.Errors,
		}
		if err := formatter.Success(payload); err != nil {
			return err
		}
		if !result.OK() {
			return NewExitError(ExitFailure, "realization completed with errors")
		}
		return nil
	}

	if result.OK() {
		fmt.Fprintf(formatter.Writer, "✓ realized %s (%d artifacts)\n", result.DeclarationTitle, len(result.Artifacts))
	} else {
		fmt.Fprintf(formatter.Writer, "✗ realized %s with %d error(s)\n", result.DeclarationTitle, len(result.Errors))
	}
	if result.Bypassed() {
		fmt.Fprintln(formatter.Writer, "warning: validation was bypassed for this run")
	}

	ids := make([]string, 0, len(result.Artifacts))
	for id := range result.Artifacts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(formatter.Writer, "  %s\n", id)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  error: %s\n", msg)
	}

	if !result.OK() {
		return NewExitError(ExitFailure, "realization completed with errors")
	}
	return nil
}

// planRealizer is the CLI's built-in realizer. It covers every kind the
// declaration mentions and emits a realization plan instead of geometry:
// the form's identity, parameters and effective tolerance.
type planRealizer struct {
	kinds []string
}

func newPlanRealizer(decl *canon.Declaration) *planRealizer {
	seen := map[string]bool{}
	var kinds []string
	for _, f := range decl.Forms {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, f.Kind)
		}
	}
	return &planRealizer{kinds: kinds}
}

func (p *planRealizer) SupportedKinds() []string {
	return append([]string(nil), p.kinds...)
}

func (p *planRealizer) RealizeForm(_ context.Context, form canon.Form, rc realize.Context) (realize.Output, error) {
	artifact := map[string]any{
		"id":        form.ID,
		"kind":      form.Kind,
		"params":    canon.ToGo(form.Params),
		"tolerance": rc.Epsilon,
	}
	return realize.Output{Artifact: artifact}, nil
}
