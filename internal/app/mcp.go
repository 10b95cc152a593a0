package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/contract"
	"github.com/louisbranch/milestonefund/internal/mcp"
)

// RunMCP serves the campaign MCP tools on stdio over the configured store.
func RunMCP(ctx context.Context, cfg Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	verifier, err := LoadConsentVerifier()
	if err != nil {
		return err
	}
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	svc, err := contract.New(store, auth.SignerAuthorizer{}, contract.WithLogger(logger))
	if err != nil {
		return err
	}
	server, err := mcp.New(mcp.Config{
		Service:      svc,
		Verifier:     verifier,
		TrustSigners: cfg.MCPTrustSigners,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	return server.ServeStdio(ctx)
}
