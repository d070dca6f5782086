package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/canon/internal/canon"
	"github.com/roach88/canon/internal/engine"
	"github.com/roach88/canon/internal/loader"
	"github.com/roach88/canon/internal/store"
)

// ValidationResult holds the validate command's output payload.
type ValidationResult struct {
	Valid     bool           `json:"valid"`
	Signature string         `json:"signature,omitempty"`
	Verdict   canon.Verdict  `json:"verdict"`
	Counts    map[string]int `json:"counts,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		lenient     bool
		archivePath string
	)

	cmd := &cobra.Command{
		Use:   "validate <declaration-dir>",
		Short: "Validate a declaration against the canon rules",
		Long: `Validate a CUE declaration against the full canon rule set.

Reports every finding with its severity, rule id and cited articles.
The declaration blocks on FATAL findings always, and on ERROR findings
unless --lenient is set. With --archive, the verdict is recorded under
the declaration signature for later lookup with "canon runs".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], lenient, archivePath, cmd)
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "treat ERROR findings as advisory")
	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to record the verdict in")

	return cmd
}

func runValidate(opts *RootOptions, declDir string, lenient bool, archivePath string, cmd *cobra.Command) error {
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

	formatter.VerboseLog("Loaded declaration %q: %d forms, %d relations, %d traces",
		decl.Title, len(decl.Forms), len(decl.Relations), len(decl.Traces))

	engOpts := []engine.Option{}
	if lenient {
		engOpts = append(engOpts, engine.WithLenient())
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

	verdict := eng.Validate(decl)

	sig, sigErr := canon.Signature(decl)
	if sigErr != nil {
		formatter.VerboseLog("declaration is not signable: %v", sigErr)
	}

	return outputVerdict(formatter, verdict, sig)
}

// loadDeclaration loads a declaration directory, mapping loader errors
// to command errors.
func loadDeclaration(formatter *OutputFormatter, dir string) (*canon.Declaration, error) {
	decl, err := loader.LoadDir(dir)
	if err == nil {
		return decl, nil
	}

	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return nil, WrapExitError(ExitCommandError, "failed to load declaration", err)
	}
	var compileErr *loader.CompileError
	if errors.As(err, &compileErr) {
		_ = formatter.Error(loader.ErrCodeLoadFailed, compileErr.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to compile declaration", err)
	}

	_ = formatter.Error(loader.ErrCodeLoadFailed, err.Error(), nil)
	return nil, WrapExitError(ExitCommandError, "failed to load declaration", err)
}

// outputVerdict prints a verdict and maps its outcome to an exit code.
func outputVerdict(formatter *OutputFormatter, verdict canon.Verdict, sig string) error {
	if formatter.Format == "json" {
		counts := map[string]int{}
		for sev, n := range verdict.CountBySeverity() {
			counts[sev.String()] = n
		}
		result := ValidationResult{
			Valid:     verdict.OK,
			Signature: sig,
			Verdict:   verdict,
			Counts:    counts,
		}
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !verdict.OK {
			return NewExitError(ExitFailure, "validation failed")
		}
		return nil
	}

	if verdict.OK {
		fmt.Fprintf(formatter.Writer, "✓ %s conforms to the canon\n", verdict.DeclarationTitle)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s does not conform to the canon\n", verdict.DeclarationTitle)
	}
	if sig != "" {
		fmt.Fprintf(formatter.Writer, "signature: %s\n", sig)
	}

	for _, f := range verdict.Findings {
		fmt.Fprintf(formatter.Writer, "\n[%s] %s: %s\n", f.Severity, f.RuleID, f.Message)
		if len(f.SubjectIDs) > 0 {
			fmt.Fprintf(formatter.Writer, "  subjects: %v\n", f.SubjectIDs)
		}
		if len(f.Articles) > 0 {
			fmt.Fprintf(formatter.Writer, "  articles: %v\n", f.Articles)
		}
		if f.SuggestedFix != "" {
			fmt.Fprintf(formatter.Writer, "  fix: %s\n", f.SuggestedFix)
		}
	}

	if !verdict.OK {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(verdict.Findings)))
	}
	return nil
}
