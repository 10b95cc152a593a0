// Package consentkey parses consent-key command flags and runs the key tool.
package consentkey

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/milestonefund/internal/auth"
	entrypoint "github.com/louisbranch/milestonefund/internal/platform/cmd"
	"github.com/louisbranch/milestonefund/internal/tools/consentkey"
)

// Config holds consent-key command configuration.
type Config struct {
	// Mint lists identities to mint consent tokens for. Empty generates a key pair.
	Mint []string
	TTL  time.Duration
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	var mint string
	fs.StringVar(&mint, "mint", "", "comma-separated identities to mint consent tokens for")
	fs.DurationVar(&cfg.TTL, "ttl", auth.DefaultConsentTTL, "lifetime of minted tokens")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	for _, identity := range strings.Split(mint, ",") {
		if identity = strings.TrimSpace(identity); identity != "" {
			cfg.Mint = append(cfg.Mint, identity)
		}
	}
	if cfg.TTL <= 0 {
		return Config{}, errors.New("ttl must be positive")
	}
	return cfg, nil
}

// Run generates a key pair, or mints tokens with the key from the environment.
func Run(_ context.Context, cfg Config, out io.Writer) error {
	if len(cfg.Mint) == 0 {
		return consentkey.Generate(out, rand.Reader)
	}
	issuer, err := auth.LoadConsentIssuerFromEnv(time.Now)
	if err != nil {
		return err
	}
	issuer.TTL = cfg.TTL
	return consentkey.Mint(out, issuer, cfg.Mint)
}
