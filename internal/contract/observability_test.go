package contract

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/storage/memory"
)

func TestInvocationMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	c, err := New(memory.New(), auth.SignerAuthorizer{}, WithMetrics(metrics))
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}
	initialize(t, c, 50, 50)
	if err := c.Donate(signed(donorX), donorX, campaign.NewAmount(42)); err != nil {
		t.Fatalf("donate: %v", err)
	}
	if err := c.CompleteMilestone(signed(creator), 0); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_ = c.CompleteMilestone(signed(creator), 0)
	_ = c.ApproveMilestone(context.Background(), 0)

	tests := []struct {
		op      string
		outcome string
		code    string
		want    float64
	}{
		{op: "initialize", outcome: "ok", want: 1},
		{op: "donate", outcome: "ok", want: 1},
		{op: "complete_milestone", outcome: "ok", want: 1},
		{op: "complete_milestone", outcome: "error", code: "MILESTONE_ALREADY_COMPLETED", want: 1},
		{op: "approve_milestone", outcome: "abort", code: "UNAUTHORIZED", want: 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(metrics.invocations.WithLabelValues(tt.op, tt.outcome, tt.code))
		if got != tt.want {
			t.Fatalf("%s/%s/%s = %v, want %v", tt.op, tt.outcome, tt.code, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(metrics.currentAmount); got != 42 {
		t.Fatalf("current amount gauge = %v, want 42", got)
	}
	if got := testutil.ToFloat64(metrics.milestones.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.milestones.WithLabelValues("pending")); got != 1 {
		t.Fatalf("pending gauge = %v, want 1", got)
	}
}

func TestInvocationLogsOneLine(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New(memory.New(), auth.SignerAuthorizer{}, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}

	initialize(t, c, 100)
	_ = c.ApproveMilestone(signed(admin), 0)
	_ = c.ApproveMilestone(signed(creator), 0)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("log entries = %d, want 3", len(entries))
	}

	tests := []struct {
		level   zapcore.Level
		outcome string
		code    string
	}{
		{level: zapcore.InfoLevel, outcome: "ok"},
		{level: zapcore.InfoLevel, outcome: "error", code: "MILESTONE_NOT_COMPLETED"},
		{level: zapcore.WarnLevel, outcome: "abort", code: "UNAUTHORIZED"},
	}
	for i, tt := range tests {
		entry := entries[i]
		fields := entry.ContextMap()
		if entry.Level != tt.level {
			t.Fatalf("entry %d level = %v, want %v", i, entry.Level, tt.level)
		}
		if fields["outcome"] != tt.outcome {
			t.Fatalf("entry %d outcome = %v, want %s", i, fields["outcome"], tt.outcome)
		}
		if tt.code != "" && fields["code"] != tt.code {
			t.Fatalf("entry %d code = %v, want %s", i, fields["code"], tt.code)
		}
		if id, _ := fields["invocation_id"].(string); len(id) != 26 {
			t.Fatalf("entry %d invocation_id = %v", i, fields["invocation_id"])
		}
	}
}

func TestInvocationSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c, err := New(memory.New(), auth.SignerAuthorizer{}, WithTracerProvider(provider))
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}

	initialize(t, c, 100)
	_ = c.CompleteMilestone(context.Background(), 0)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "contract.initialize" || spans[1].Name() != "contract.complete_milestone" {
		t.Fatalf("span names = %s, %s", spans[0].Name(), spans[1].Name())
	}

	attrs := map[string]string{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["milestonefund.error_code"] != "UNAUTHORIZED" {
		t.Fatalf("error code attribute = %q", attrs["milestonefund.error_code"])
	}
	if attrs["milestonefund.milestone_index"] != "0" {
		t.Fatalf("milestone index attribute = %q", attrs["milestonefund.milestone_index"])
	}
}
