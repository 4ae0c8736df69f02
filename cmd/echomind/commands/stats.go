// ABOUTME: CLI command to count stored phrase selections
// ABOUTME: Shows totals per category for one user or everyone
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/models"
)

var statsUser string

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stored phrase counts",
		Long: `Show how many phrase selections are stored, per category.

Without --user the counts cover every user.

Examples:
  echomind stats
  echomind stats -u sam --format json`,
		RunE: runStats,
	}

	cmd.Flags().StringVarP(&statsUser, "user", "u", "", "Only count this user")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	stats, err := a.Engine.Stats(cmd.Context(), statsUser)
	if err != nil {
		return fmt.Errorf("counting phrases: %w", err)
	}

	if outputFormat == "json" {
		return printJSON(cmd, stats)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tPHRASES\n")
	fmt.Fprintf(w, "--------\t-------\n")
	for _, c := range models.Categories {
		fmt.Fprintf(w, "%s\t%d\n", c, stats.ByCategory[c.String()])
	}
	fmt.Fprintf(w, "Total\t%d\n", stats.Total)
	if err := w.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nEmbedding dimension: %d\n", a.Engine.Dimensions())
		if !a.Engine.PersonalizationEnabled() {
			fmt.Fprintf(cmd.OutOrStdout(), "Personalization: disabled (%v)\n", a.InitErr)
		}
	}
	return nil
}
