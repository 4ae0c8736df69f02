// ABOUTME: CLI command to print the personalization hint for a situation
// ABOUTME: Optionally prints the labeled prompt line used by phrase generators
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/core"
)

var (
	personalizeFlags  situationFlags
	personalizePrompt bool
)

// NewPersonalizeCmd creates the personalize command
func NewPersonalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personalize",
		Short: "Show the personalization hint",
		Long: `Show the personalization hint for a situation: what the child said in
similar situations and their most frequent phrases in the category.

With --prompt the hint is printed as the "Personalization:" line that is
added to a phrase generator prompt.

Examples:
  echomind personalize -c help
  echomind personalize -u sam -c feelings --time evening --prompt`,
		RunE: runPersonalize,
	}

	personalizeFlags.register(cmd)
	cmd.Flags().BoolVar(&personalizePrompt, "prompt", false, "Print as a prompt line")

	return cmd
}

func runPersonalize(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil && !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: personalization disabled: %v\n", a.InitErr)
	}

	userID, category, err := personalizeFlags.resolve(a.Config)
	if err != nil {
		return err
	}

	hint := a.Engine.Personalize(cmd.Context(), userID, category.String(), personalizeFlags.fields(time.Now()))

	if outputFormat == "json" {
		return printJSON(cmd, map[string]interface{}{
			"user_id":                 userID,
			"category":                category.String(),
			"hint":                    hint,
			"prompt_line":             core.PromptLine(hint),
			"personalization_enabled": a.Engine.PersonalizationEnabled(),
		})
	}

	if personalizePrompt {
		hint = core.PromptLine(hint)
	}
	if hint != "" {
		fmt.Fprintln(cmd.OutOrStdout(), hint)
	}
	return nil
}
