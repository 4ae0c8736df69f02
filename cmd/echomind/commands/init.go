// ABOUTME: CLI command to prepare the phrase collection
// ABOUTME: Creates the collection or verifies it matches the configured embedder
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or verify the phrase collection",
		Long: `Create the phrase collection, or verify that an existing one matches
the configured embedding dimension and distance metric.

A collection created with a different embedding model cannot be reused;
choose a new collection name or delete the old one.

Examples:
  echomind init
  ECHOMIND_STORE=qdrant echomind init`,
		RunE: runInit,
	}

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil {
		return fmt.Errorf("collection setup failed: %w", a.InitErr)
	}

	result := map[string]interface{}{
		"backend":    a.Config.Store.Backend,
		"collection": a.Config.Store.Collection,
		"dimension":  a.Engine.Dimensions(),
		"metric":     a.Config.Metric(),
	}
	if outputFormat == "json" {
		return printJSON(cmd, result)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Collection %q ready (%s, dimension %d, metric %s)\n",
			a.Config.Store.Collection, a.Config.Store.Backend, a.Engine.Dimensions(), a.Config.Metric())
	}
	return nil
}
