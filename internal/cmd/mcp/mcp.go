// Package mcp parses MCP command flags and serves campaign tools on stdio.
package mcp

import (
	"context"
	"flag"

	"github.com/louisbranch/milestonefund/internal/app"
	entrypoint "github.com/louisbranch/milestonefund/internal/platform/cmd"
	"github.com/louisbranch/milestonefund/internal/platform/logging"
)

// Config holds MCP command configuration.
type Config struct {
	app.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Store, "store", cfg.Store, "campaign store: memory, bbolt, sqlite or redis")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path for the bbolt and sqlite stores")
	fs.BoolVar(&cfg.MCPTrustSigners, "trust-signers", cfg.MCPTrustSigners, "accept signer names without consent tokens")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter on stdio.
func Run(ctx context.Context, cfg Config) error {
	// zap production loggers write to stderr, leaving stdout to the protocol.
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return app.RunMCP(ctx, cfg.Config, logger)
	})
}
