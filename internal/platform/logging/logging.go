// Package logging builds zap loggers and scopes them to one invocation.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/louisbranch/milestonefund/internal/platform/requestctx"
)

// New builds a production JSON logger at the given level. An empty level means info.
func New(level string) (*zap.Logger, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// WithInvocation adds the invocation and trace identifiers found in ctx.
func WithInvocation(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	var fields []zap.Field
	if invocationID := requestctx.InvocationIDFromContext(ctx); invocationID != "" {
		fields = append(fields, zap.String("invocation_id", invocationID))
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		fields = append(fields, zap.String("trace_id", spanCtx.TraceID().String()))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
