package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/canon/internal/rules"
)

// RuleInfo describes one built-in rule for CLI output.
type RuleInfo struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Articles []string `json:"articles,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in canon rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}

	return cmd
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var infos []RuleInfo
	for _, r := range rules.DefaultRules() {
		infos = append(infos, RuleInfo{
			ID:       r.ID(),
			Title:    r.Title(),
			Articles: r.Articles(),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", info.ID, info.Title)
		if len(info.Articles) > 0 {
			fmt.Fprintf(formatter.Writer, "      articles: %s\n", strings.Join(info.Articles, ", "))
		}
	}
	return nil
}
