// ABOUTME: CLI command to find past situations similar to the current one
// ABOUTME: Shows the phrase chosen each time with its similarity score
package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/core"
)

var (
	similarFlags situationFlags
	similarLimit int
)

// NewSimilarCmd creates the similar command
func NewSimilarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Find similar past situations",
		Long: `Find the past situations most similar to the given one and the phrase
the child chose in each.

Examples:
  echomind similar -c body
  echomind similar -c help --time evening --location home --limit 5
  echomind similar -c body --format json`,
		RunE: runSimilar,
	}

	similarFlags.register(cmd)
	cmd.Flags().IntVarP(&similarLimit, "limit", "n", core.DefaultRetrieveLimit, "Maximum number of matches")

	return cmd
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(similarLimit, "limit"); err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	userID, category, err := similarFlags.resolve(a.Config)
	if err != nil {
		return err
	}

	matches, err := a.Engine.Similar(cmd.Context(), userID, category.String(), similarFlags.fields(time.Now()), similarLimit)
	if err != nil {
		return fmt.Errorf("similarity search: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, matches)
	}

	if len(matches) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No similar situations found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PHRASE\tCATEGORY\tTIME\tSCORE\n")
	fmt.Fprintf(w, "------\t--------\t----\t-----\n")
	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\n", truncate(m.Phrase, 40), m.Category, m.TimeOfDay, m.Score)
	}
	return w.Flush()
}
