// Package timeouts defines timeout constants shared across milestonefund commands.
package timeouts

import "time"

// GRPCDial caps the wait for a campaign server to connect and report healthy
// when the caller sets no timeout of its own.
const GRPCDial = 5 * time.Second

// HealthProbe caps a single health check call.
const HealthProbe = time.Second

// ToolCall caps one contract invocation made on behalf of an MCP tool.
const ToolCall = 5 * time.Second

// ReadHeader limits how long the metrics server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown is the graceful stop budget used when none is configured.
const Shutdown = 10 * time.Second
