// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents record phrases and fetch personalization via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs echomind as an MCP (Model Context Protocol) server over stdio so LLM
agents that generate phrase suggestions can record selections and fetch
personalization hints.

Tools: record_phrase, get_personalization, find_similar_contexts,
top_phrases, memory_stats.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the MCP client)
  echomind mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "echomind": {
  #       "command": "echomind",
  #       "args": ["mcp", "--quiet"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil {
		a.Logger.Warn("starting with personalization disabled", zap.Error(a.InitErr))
	}

	server := mcp.NewServer(a.Engine, a.Config.DefaultUser, a.Logger.Named("mcp"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
