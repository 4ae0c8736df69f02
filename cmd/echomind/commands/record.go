// ABOUTME: CLI command to record a selected phrase
// ABOUTME: Stores the phrase with its category and situational context
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/models"
)

var recordFlags situationFlags

// NewRecordCmd creates the record command
func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record [phrase]",
		Short: "Record a selected phrase",
		Long: `Record a phrase the child selected, together with the situation.

Time of day and day of week default to the current clock.

Examples:
  echomind record -c help "I need help"
  echomind record -u sam -c body --location school "I'm hungry"
  echomind record -c feelings --time evening --day Friday "Too loud"`,
		Args: cobra.ExactArgs(1),
		RunE: runRecord,
	}

	recordFlags.register(cmd)

	return cmd
}

func runRecord(cmd *cobra.Command, args []string) error {
	phrase := strings.TrimSpace(args[0])
	if phrase == "" {
		return fmt.Errorf("no phrase provided")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	userID, category, err := recordFlags.resolve(a.Config)
	if err != nil {
		return err
	}

	rec, err := a.Engine.Record(cmd.Context(), models.Selection{
		UserID:   userID,
		Category: category.String(),
		Phrase:   phrase,
		Context:  recordFlags.fields(time.Now()),
	})
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return printJSON(cmd, rec)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %q for %s in %s (#%d)\n", rec.Phrase, rec.UserID, rec.Category, rec.Seq)
		if rec.Degraded {
			fmt.Fprintf(cmd.OutOrStdout(), "  embedding unavailable, stored without similarity data\n")
		}
	}
	return nil
}
