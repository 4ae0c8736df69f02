// ABOUTME: CLI command to list a user's most frequent phrases in a category
// ABOUTME: Ranks by count with ties in first-seen order
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/core"
	"github.com/harper/echomind/internal/models"
)

var (
	topUser     string
	topCategory string
	topLimit    int
)

// NewTopCmd creates the top command
func NewTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show most frequent phrases",
		Long: `Show the phrases a user selects most often in a category.

Examples:
  echomind top -c help
  echomind top -u sam -c activities --limit 5`,
		RunE: runTop,
	}

	cmd.Flags().StringVarP(&topUser, "user", "u", "", "User id (default from config)")
	cmd.Flags().StringVarP(&topCategory, "category", "c", "", "Category: body, feelings, activities, help, or the full name")
	cmd.Flags().IntVarP(&topLimit, "limit", "n", core.DefaultTopLimit, "Maximum number of phrases")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runTop(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(topLimit, "limit"); err != nil {
		return err
	}
	category, err := models.ParseCategory(topCategory)
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	userID := strings.TrimSpace(topUser)
	if userID == "" {
		userID = a.Config.DefaultUser
	}

	phrases := a.Engine.TopPhrases(cmd.Context(), userID, category.String(), topLimit)

	if outputFormat == "json" {
		return printJSON(cmd, phrases)
	}

	if len(phrases) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No phrases recorded for %s in %s\n", userID, category)
		}
		return nil
	}
	for i, p := range phrases {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, p)
	}
	return nil
}
