// ABOUTME: Logger construction for the command-line entry points
// ABOUTME: Development output when verbose, JSON production output otherwise, silent when quiet
package app

import "go.uber.org/zap"

// NewLogger returns a zap logger. verbose selects the development config
// (human-readable, debug level); quiet discards everything. Both write to
// stderr so stdout stays free for command output and the MCP stdio stream.
func NewLogger(verbose, quiet bool) (*zap.Logger, error) {
	switch {
	case quiet:
		return zap.NewNop(), nil
	case verbose:
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
