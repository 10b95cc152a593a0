// Package server parses server command flags and starts the campaign service.
package server

import (
	"context"
	"flag"

	"github.com/louisbranch/milestonefund/internal/app"
	entrypoint "github.com/louisbranch/milestonefund/internal/platform/cmd"
	"github.com/louisbranch/milestonefund/internal/platform/logging"
)

// Config holds server command configuration.
type Config struct {
	app.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "addr", cfg.GRPCAddr, "gRPC listen address")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address (empty disables metrics)")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "campaign store: memory, bbolt, sqlite or redis")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path for the bbolt and sqlite stores")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the campaign gRPC server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	verifier, err := app.LoadConsentVerifier()
	if err != nil {
		return err
	}
	if verifier == nil {
		logger.Warn("consent verification disabled: signed operations will be rejected")
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, entrypoint.RunOptions{
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	}, func(ctx context.Context) error {
		srv, err := app.NewServer(ctx, cfg.Config, logger, app.WithConsentVerifier(verifier))
		if err != nil {
			return err
		}
		return srv.Serve(ctx)
	})
}
