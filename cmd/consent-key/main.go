// Package main generates consent signing keys and mints consent tokens.
//
// Without flags it prints a fresh Ed25519 key pair as shell exports. With
// -mint it signs tokens using the private key from the environment.
package main

import (
	"context"
	"flag"
	"os"

	consentkeycmd "github.com/louisbranch/milestonefund/internal/cmd/consentkey"
	"github.com/louisbranch/milestonefund/internal/platform/config"
)

func main() {
	cfg, err := consentkeycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := consentkeycmd.Run(context.Background(), cfg, os.Stdout); err != nil {
		config.Exitf("consent key: %v", err)
	}
}
