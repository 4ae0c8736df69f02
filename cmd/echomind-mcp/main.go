// ABOUTME: Standalone echomind MCP server with stdio transport
// ABOUTME: Configured from the environment for MCP clients that launch a bare binary
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/app"
	"github.com/harper/echomind/internal/config"
	"github.com/harper/echomind/internal/mcp"
)

func main() {
	// stdout carries the MCP stream; log goes to stderr
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(false, false)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() { _ = a.Close() }()

	if a.InitErr != nil {
		logger.Warn("starting with personalization disabled", zap.Error(a.InitErr))
	}

	server := mcp.NewServer(a.Engine, cfg.DefaultUser, logger.Named("mcp"))

	if err := mcpserver.ServeStdio(server); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
