// Package scenario parses scenario command flags and replays Lua campaign scripts.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/contract"
	entrypoint "github.com/louisbranch/milestonefund/internal/platform/cmd"
	"github.com/louisbranch/milestonefund/internal/platform/logging"
	"github.com/louisbranch/milestonefund/internal/scenario"
	"github.com/louisbranch/milestonefund/internal/storage/memory"
	transportgrpc "github.com/louisbranch/milestonefund/internal/transport/grpc"
)

// Config holds scenario command configuration.
type Config struct {
	// GRPCAddr selects a remote campaign server. Empty runs every scenario
	// against a fresh in-memory contract.
	GRPCAddr string        `env:"MILESTONEFUND_SCENARIO_GRPC_ADDR"`
	Scenario string        `env:"MILESTONEFUND_SCENARIO_PATH"`
	Verbose  bool          `env:"MILESTONEFUND_SCENARIO_VERBOSE"`
	Timeout  time.Duration `env:"MILESTONEFUND_SCENARIO_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "campaign server address (empty runs in-process)")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to a scenario lua file or directory (empty runs the built-in set)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every step")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for connecting to the server")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the selected scenarios and writes one result line per scenario.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	scenarios, err := load(cfg.Scenario)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return errors.New("no scenarios found")
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		logger, err = logging.New("debug")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceScenario, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		var remote contract.Service
		if strings.TrimSpace(cfg.GRPCAddr) != "" {
			client, closeConn, err := dialRemote(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeConn()
			remote = client
		}

		failed := 0
		for _, scene := range scenarios {
			runner, err := newRunner(remote, logger)
			if err != nil {
				return err
			}
			report := runner.Run(ctx, scene)
			if failure := report.Failure(); failure != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s\n", report.Name)
				fmt.Fprintf(errOut, "  step %d (%s): %v\n", failure.Index+1, failure.Kind, failure.Err)
				continue
			}
			fmt.Fprintf(out, "PASS %s (%d steps)\n", report.Name, len(report.Steps))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
		}
		return nil
	})
}

func load(path string) ([]*scenario.Scenario, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return scenario.Builtin()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDir(os.DirFS(path))
	}
	scene, err := scenario.LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{scene}, nil
}

// newRunner builds a runner against remote or, when remote is nil, against a
// fresh in-memory contract that also accepts set_active steps.
func newRunner(remote contract.Service, logger *zap.Logger) (*scenario.Runner, error) {
	if remote != nil {
		return scenario.NewRunner(remote, scenario.WithLogger(logger)), nil
	}
	store := memory.New()
	svc, err := contract.New(store, auth.SignerAuthorizer{}, contract.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return scenario.NewRunner(svc, scenario.WithLogger(logger), scenario.WithSeeder(scenario.StoreSeeder(store))), nil
}

func dialRemote(ctx context.Context, cfg Config) (*transportgrpc.Client, func(), error) {
	var issuer transportgrpc.TokenIssuer
	consentIssuer, err := auth.LoadConsentIssuerFromEnv(time.Now)
	if err == nil {
		issuer = consentIssuer
	}
	client, conn, err := transportgrpc.Dial(ctx, cfg.GRPCAddr, cfg.Timeout, issuer)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = conn.Close() }, nil
}
