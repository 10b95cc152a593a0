// Package mcp exposes campaign operations as Model Context Protocol tools.
//
// Each mutating tool takes the identities that consent to the invocation.
// Consent tokens are verified with an auth.ConsentVerifier; bare signer names
// are accepted only when the server trusts its caller (local stdio use).
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/contract"
)

const (
	serverName    = "milestonefund"
	serverVersion = "0.1.0"
)

// Config wires the MCP server to a campaign service.
type Config struct {
	Service contract.Service
	// Verifier checks consent tokens passed to mutating tools.
	Verifier *auth.ConsentVerifier
	// TrustSigners accepts signer identities without proof.
	TrustSigners bool
	Logger       *zap.Logger
}

// Server hosts the MCP tools for one campaign.
type Server struct {
	mcpServer *mcp.Server
	logger    *zap.Logger
}

// New registers the campaign tools and resources.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("campaign service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	h := handlers{
		service: cfg.Service,
		consent: consentResolver{verifier: cfg.Verifier, trustSigners: cfg.TrustSigners},
	}
	registerTools(mcpServer, h)
	mcpServer.AddResource(CampaignResource(), CampaignResourceHandler(cfg.Service))

	return &Server{mcpServer: mcpServer, logger: cfg.Logger}, nil
}

// ServeStdio serves MCP over standard input/output until ctx ends.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve runs the MCP server on transport until ctx ends or the peer disconnects.
func (s *Server) Serve(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return errors.New("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.logger.Info("serving MCP", zap.String("server", serverName))
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
