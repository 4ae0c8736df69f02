// ABOUTME: Root command and global flags for the echomind CLI
// ABOUTME: Registers every subcommand and enforces flag combinations
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Global flags shared by every subcommand
var (
	configPath   string
	dbPath       string
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ███████  ██████ ██   ██  ██████  ███    ███ ██ ███    ██ ██████
 ██      ██      ██   ██ ██    ██ ████  ████ ██ ████   ██ ██   ██
 █████   ██      ███████ ██    ██ ██ ████ ██ ██ ██ ██  ██ ██   ██
 ██      ██      ██   ██ ██    ██ ██  ██  ██ ██ ██  ██ ██ ██   ██
 ███████  ██████ ██   ██  ██████  ██      ██ ██ ██   ████ ██████
`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echomind",
		Short: "Contextual phrase memory for AAC personalization",
		Long: banner + `
echomind remembers which phrases a child selects and the situation each
one was chosen in (category, time of day, day, location). It turns that
history into a short personalization hint for a phrase generator: what
the child said in similar situations and what they say most often.

Run it as a CLI, an HTTP API (serve), or an MCP server for LLM agents (mcp).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "text", "json":
			default:
				return fmt.Errorf("--format must be auto, text, or json; got %q", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/echomind/config.yaml)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json")

	cmd.AddCommand(
		NewInitCmd(),
		NewRecordCmd(),
		NewSimilarCmd(),
		NewTopCmd(),
		NewPersonalizeCmd(),
		NewStatsCmd(),
		NewServeCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
