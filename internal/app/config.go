// Package app wires milestonefund configuration, storage, and servers.
package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/platform/config"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bbolt"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds the runtime configuration shared by milestonefund commands.
type Config struct {
	GRPCAddr    string `env:"MILESTONEFUND_GRPC_ADDR" envDefault:":8090"`
	MetricsAddr string `env:"MILESTONEFUND_METRICS_ADDR" envDefault:":9090"`
	Store       string `env:"MILESTONEFUND_STORE" envDefault:"bbolt"`
	DBPath      string `env:"MILESTONEFUND_DB_PATH" envDefault:"data/milestonefund.db"`
	LogLevel    string `env:"MILESTONEFUND_LOG_LEVEL" envDefault:"info"`

	RedisAddr     string `env:"MILESTONEFUND_REDIS_ADDR"`
	RedisPassword string `env:"MILESTONEFUND_REDIS_PASSWORD"`
	RedisDB       int    `env:"MILESTONEFUND_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"MILESTONEFUND_REDIS_PREFIX" envDefault:"milestonefund:"`

	// MCPTrustSigners lets MCP tools name signers without consent tokens.
	MCPTrustSigners bool `env:"MILESTONEFUND_MCP_TRUST_SIGNERS" envDefault:"false"`

	ShutdownTimeout time.Duration `env:"MILESTONEFUND_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate checks backend-specific settings.
func (c Config) Validate() error {
	switch strings.TrimSpace(c.Store) {
	case StoreMemory:
	case StoreBolt, StoreSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("MILESTONEFUND_DB_PATH is required for the %s store", c.Store)
		}
	case StoreRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return fmt.Errorf("MILESTONEFUND_REDIS_ADDR is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q: must be memory, bbolt, sqlite or redis", c.Store)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	return nil
}

// LoadConsentVerifier builds a verifier from the environment, or returns nil
// when no public key is configured. Without a verifier only unsigned reads
// succeed over the network.
func LoadConsentVerifier() (*auth.ConsentVerifier, error) {
	if strings.TrimSpace(os.Getenv(auth.EnvConsentPublicKey)) == "" {
		return nil, nil
	}
	cfg, err := auth.LoadConsentConfigFromEnv(time.Now)
	if err != nil {
		return nil, err
	}
	return auth.NewConsentVerifier(cfg)
}
