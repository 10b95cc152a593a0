package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/platform/id"
	"github.com/louisbranch/milestonefund/internal/platform/logging"
	"github.com/louisbranch/milestonefund/internal/platform/requestctx"
	"github.com/louisbranch/milestonefund/internal/storage"
)

// StorageKey is the single key holding the campaign aggregate.
const StorageKey = "campaign_data"

const tracerName = "github.com/louisbranch/milestonefund/internal/contract"

// Service is the invocation surface shared by the in-process contract and
// its remote clients.
type Service interface {
	Initialize(ctx context.Context, input campaign.InitializeInput) error
	Donate(ctx context.Context, donor campaign.Identity, amount campaign.Amount) error
	CompleteMilestone(ctx context.Context, index uint32) error
	ApproveMilestone(ctx context.Context, index uint32) error
	GetCampaignDetails(ctx context.Context) (campaign.Data, error)
}

// Contract executes campaign operations against one store.
type Contract struct {
	store      storage.KV
	authorizer auth.Authorizer
	logger     *zap.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	now        func() time.Time

	// mu serializes invocations on this instance.
	mu sync.Mutex
}

// Option customizes a Contract.
type Option func(*Contract)

// WithLogger sets the invocation logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Contract) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Contract) {
		c.metrics = metrics
	}
}

// WithTracerProvider sets the provider used for invocation spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Contract) {
		if provider != nil {
			c.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithClock overrides the clock used for invocation durations.
func WithClock(now func() time.Time) Option {
	return func(c *Contract) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a contract over store, authorizing callers with authorizer.
func New(store storage.KV, authorizer auth.Authorizer, opts ...Option) (*Contract, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if authorizer == nil {
		return nil, errors.New("authorizer is required")
	}
	c := &Contract{
		store:      store,
		authorizer: authorizer,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Initialize creates the campaign. Both the creator and the admin must sign.
// Calling it again replaces the stored campaign.
func (c *Contract) Initialize(ctx context.Context, input campaign.InitializeInput) error {
	return c.invoke(ctx, campaign.OperationInitialize, func(ctx context.Context, tx storage.Tx) (campaign.Data, error) {
		proposed := campaign.Data{Creator: input.Creator, Admin: input.Admin}
		if err := c.requireSigners(ctx, campaign.OperationInitialize, proposed, ""); err != nil {
			return campaign.Data{}, err
		}
		data, err := campaign.New(input)
		if err != nil {
			return campaign.Data{}, err
		}
		return data, save(tx, data)
	})
}

// Donate adds amount to the running total. The donor must sign.
func (c *Contract) Donate(ctx context.Context, donor campaign.Identity, amount campaign.Amount) error {
	return c.invoke(ctx, campaign.OperationDonate, func(ctx context.Context, tx storage.Tx) (campaign.Data, error) {
		if err := c.requireSigners(ctx, campaign.OperationDonate, campaign.Data{}, donor); err != nil {
			return campaign.Data{}, err
		}
		data, err := load(tx)
		if err != nil {
			return campaign.Data{}, err
		}
		next, err := data.Donate(amount)
		if err != nil {
			return campaign.Data{}, err
		}
		return next, save(tx, next)
	})
}

// CompleteMilestone marks the milestone at index completed. The stored
// creator must sign.
func (c *Contract) CompleteMilestone(ctx context.Context, index uint32) error {
	return c.invoke(ctx, campaign.OperationCompleteMilestone, func(ctx context.Context, tx storage.Tx) (campaign.Data, error) {
		data, err := load(tx)
		if err != nil {
			return campaign.Data{}, err
		}
		if err := c.requireSigners(ctx, campaign.OperationCompleteMilestone, data, ""); err != nil {
			return campaign.Data{}, err
		}
		next, err := data.CompleteMilestone(index)
		if err != nil {
			return campaign.Data{}, err
		}
		return next, save(tx, next)
	}, attribute.Int64("milestonefund.milestone_index", int64(index)))
}

// ApproveMilestone marks the completed milestone at index approved. The
// stored admin must sign.
func (c *Contract) ApproveMilestone(ctx context.Context, index uint32) error {
	return c.invoke(ctx, campaign.OperationApproveMilestone, func(ctx context.Context, tx storage.Tx) (campaign.Data, error) {
		data, err := load(tx)
		if err != nil {
			return campaign.Data{}, err
		}
		if err := c.requireSigners(ctx, campaign.OperationApproveMilestone, data, ""); err != nil {
			return campaign.Data{}, err
		}
		next, err := data.ApproveMilestone(index)
		if err != nil {
			return campaign.Data{}, err
		}
		return next, save(tx, next)
	}, attribute.Int64("milestonefund.milestone_index", int64(index)))
}

// GetCampaignDetails returns the stored campaign. No signature is required.
func (c *Contract) GetCampaignDetails(ctx context.Context) (campaign.Data, error) {
	var result campaign.Data
	err := c.invoke(ctx, campaign.OperationGetDetails, func(ctx context.Context, tx storage.Tx) (campaign.Data, error) {
		data, err := load(tx)
		if err != nil {
			return campaign.Data{}, err
		}
		result = data
		return data, nil
	})
	if err != nil {
		return campaign.Data{}, err
	}
	return result, nil
}

type invocationFunc func(ctx context.Context, tx storage.Tx) (campaign.Data, error)

func (c *Contract) invoke(ctx context.Context, op campaign.Operation, fn invocationFunc, attrs ...attribute.KeyValue) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	invocationID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ctx = requestctx.WithInvocationID(ctx, invocationID)
	attrs = append(attrs,
		attribute.String("milestonefund.operation", op.String()),
		attribute.String("milestonefund.invocation_id", invocationID),
	)
	ctx, span := c.tracer.Start(ctx, "contract."+op.String(), trace.WithAttributes(attrs...))
	defer span.End()

	run := c.store.View
	if op.Mutates() {
		run = c.store.Update
	}

	start := c.now()
	var committed campaign.Data
	err = run(ctx, func(tx storage.Tx) error {
		data, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		committed = data
		return nil
	})
	elapsed := c.now().Sub(start)

	c.record(ctx, span, op, elapsed, err)
	if err == nil {
		c.metrics.observeState(committed)
	}
	return err
}

func (c *Contract) requireSigners(ctx context.Context, op campaign.Operation, state campaign.Data, caller campaign.Identity) error {
	for _, identity := range campaign.RequiredSigners(op, state, caller) {
		if err := c.authorizer.RequireAuth(ctx, identity); err != nil {
			return err
		}
	}
	return nil
}

func load(tx storage.Tx) (campaign.Data, error) {
	payload, err := tx.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return campaign.Data{}, ErrCampaignNotInitialized
	}
	if err != nil {
		return campaign.Data{}, fmt.Errorf("load campaign: %w", err)
	}
	return campaign.Unmarshal(payload)
}

func save(tx storage.Tx, data campaign.Data) error {
	payload, err := campaign.Marshal(data)
	if err != nil {
		return err
	}
	if err := tx.Set(StorageKey, payload); err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	return nil
}

// outcome classifies how an invocation ended.
type outcome string

const (
	outcomeOK    outcome = "ok"
	outcomeError outcome = "error"
	outcomeAbort outcome = "abort"
)

func classify(err error) (outcome, string) {
	if err == nil {
		return outcomeOK, ""
	}
	code := apperrors.GetCode(err)
	if code.IsAbort() {
		return outcomeAbort, string(code)
	}
	return outcomeError, string(code)
}

func (c *Contract) record(ctx context.Context, span trace.Span, op campaign.Operation, elapsed time.Duration, err error) {
	result, code := classify(err)
	c.metrics.observeInvocation(op, result, code, elapsed)

	fields := []zap.Field{
		zap.String("operation", op.String()),
		zap.String("outcome", string(result)),
		zap.Duration("duration", elapsed),
	}
	logger := logging.WithInvocation(ctx, c.logger)
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
		logger.Info("invocation", fields...)
	case result == outcomeError:
		span.SetAttributes(attribute.String("milestonefund.error_code", code))
		logger.Info("invocation", append(fields, zap.String("code", code), zap.Error(err))...)
	case code == string(apperrors.CodeUnknown) || code == string(apperrors.CodeStateCorrupt):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("invocation", append(fields, zap.String("code", code), zap.Error(err))...)
	default:
		span.SetStatus(codes.Error, code)
		span.SetAttributes(attribute.String("milestonefund.error_code", code))
		logger.Warn("invocation", append(fields, zap.String("code", code), zap.Error(err))...)
	}
}

var _ Service = (*Contract)(nil)
