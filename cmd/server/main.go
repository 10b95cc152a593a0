// Package main starts the milestonefund campaign gRPC server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	servercmd "github.com/louisbranch/milestonefund/internal/cmd/server"
	"github.com/louisbranch/milestonefund/internal/platform/config"
)

func main() {
	cfg, err := servercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := servercmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
