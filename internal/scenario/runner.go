package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/storage"
)

const (
	stepInitialize = "initialize"
	stepDonate     = "donate"
	stepComplete   = "complete"
	stepApprove    = "approve"
	stepCheck      = "check"
	stepSetActive  = "set_active"
)

// Seeder replaces the stored campaign outright, bypassing the contract.
type Seeder func(ctx context.Context, data campaign.Data) error

// StoreSeeder writes campaign data straight into store.
func StoreSeeder(store storage.KV) Seeder {
	return func(ctx context.Context, data campaign.Data) error {
		payload, err := campaign.Marshal(data)
		if err != nil {
			return err
		}
		return store.Update(ctx, func(tx storage.Tx) error {
			return tx.Set(contract.StorageKey, payload)
		})
	}
}

// Runner replays scenarios against a campaign service.
type Runner struct {
	service contract.Service
	seed    Seeder
	logger  *zap.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithSeeder enables set_active steps.
func WithSeeder(seed Seeder) RunnerOption {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithLogger sets the step logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner builds a runner for service.
func NewRunner(service contract.Service, opts ...RunnerOption) *Runner {
	r := &Runner{service: service, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StepResult is the outcome of one executed step.
type StepResult struct {
	Index    int
	Kind     string
	Duration time.Duration
	Err      error
}

// Report lists the executed steps of a scenario. Execution stops at the
// first failing step.
type Report struct {
	Name  string
	Steps []StepResult
}

// Failed reports whether any step failed.
func (r Report) Failed() bool {
	return r.Failure() != nil
}

// Failure returns the failing step, if any.
func (r Report) Failure() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Err != nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// runState tracks the roles of the last successful initialize so milestone
// steps can default their signers.
type runState struct {
	creator campaign.Identity
	admin   campaign.Identity
}

// Run executes the scenario steps in order.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) Report {
	report := Report{}
	if scenario == nil {
		return report
	}
	report.Name = scenario.Name
	logger := r.logger.With(zap.String("scenario", scenario.Name))

	st := &runState{}
	for index, step := range scenario.Steps {
		start := time.Now()
		err := r.runStep(ctx, st, step)
		result := StepResult{Index: index, Kind: step.Kind, Duration: time.Since(start), Err: err}
		report.Steps = append(report.Steps, result)
		if err != nil {
			logger.Warn("scenario step failed", zap.Int("step", index+1), zap.String("kind", step.Kind), zap.Error(err))
			break
		}
		logger.Debug("scenario step passed", zap.Int("step", index+1), zap.String("kind", step.Kind))
	}
	return report
}

func (r *Runner) runStep(ctx context.Context, st *runState, step Step) error {
	expect, err := optionalString(step.Args, "expect")
	if err != nil {
		return err
	}
	return checkOutcome(expect, r.execute(ctx, st, step))
}

func checkOutcome(expect string, err error) error {
	if expect == "" {
		if err != nil {
			return fmt.Errorf("unexpected error: %w", err)
		}
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected %s, step succeeded", expect)
	}
	if got := apperrors.GetCode(err); string(got) != expect {
		return fmt.Errorf("expected %s, got %s: %w", expect, got, err)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, st *runState, step Step) error {
	if r.service == nil {
		return errors.New("campaign service is not configured")
	}
	switch step.Kind {
	case stepInitialize:
		return r.initialize(ctx, st, step.Args)
	case stepDonate:
		donor, err := identityArg(step.Args, "donor")
		if err != nil {
			return err
		}
		amount, err := amountArg(step.Args, "amount")
		if err != nil {
			return err
		}
		signed, err := withSigners(ctx, step.Args, donor)
		if err != nil {
			return err
		}
		return r.service.Donate(signed, donor, amount)
	case stepComplete:
		index, err := indexArg(step.Args)
		if err != nil {
			return err
		}
		signed, err := withSigners(ctx, step.Args, st.creator)
		if err != nil {
			return err
		}
		return r.service.CompleteMilestone(signed, index)
	case stepApprove:
		index, err := indexArg(step.Args)
		if err != nil {
			return err
		}
		signed, err := withSigners(ctx, step.Args, st.admin)
		if err != nil {
			return err
		}
		return r.service.ApproveMilestone(signed, index)
	case stepCheck:
		data, err := r.service.GetCampaignDetails(ctx)
		if err != nil {
			return err
		}
		return checkDetails(data, step.Args)
	case stepSetActive:
		return r.setActive(ctx, step.Args)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (r *Runner) initialize(ctx context.Context, st *runState, args map[string]any) error {
	creator, err := identityArg(args, "creator")
	if err != nil {
		return err
	}
	admin, err := identityArg(args, "admin")
	if err != nil {
		return err
	}
	target, err := amountArg(args, "target")
	if err != nil {
		return err
	}
	percentages, err := percentagesArg(args, "milestones")
	if err != nil {
		return err
	}
	signed, err := withSigners(ctx, args, creator, admin)
	if err != nil {
		return err
	}
	err = r.service.Initialize(signed, campaign.InitializeInput{
		Creator:              creator,
		Admin:                admin,
		TargetAmount:         target,
		MilestonePercentages: percentages,
	})
	if err == nil {
		st.creator, st.admin = creator, admin
	}
	return err
}

func (r *Runner) setActive(ctx context.Context, args map[string]any) error {
	if r.seed == nil {
		return errors.New("set_active needs a runner with direct store access")
	}
	active, ok := args["active"].(bool)
	if !ok {
		return errors.New("set_active: active must be a boolean")
	}
	data, err := r.service.GetCampaignDetails(ctx)
	if err != nil {
		return err
	}
	data.IsActive = active
	return r.seed(ctx, data)
}

// checkDetails compares the fields present in want against data.
func checkDetails(data campaign.Data, want map[string]any) error {
	var mismatches []string
	amountField := func(key string, got campaign.Amount) {
		if _, ok := want[key]; !ok {
			return
		}
		expected, err := amountArg(want, key)
		if err != nil {
			mismatches = append(mismatches, err.Error())
			return
		}
		if !got.Equal(expected) {
			mismatches = append(mismatches, fmt.Sprintf("%s = %s, want %s", key, got, expected))
		}
	}
	amountField("current_amount", data.CurrentAmount)
	amountField("target_amount", data.TargetAmount)

	if raw, ok := want["is_active"]; ok {
		if expected, isBool := raw.(bool); !isBool {
			mismatches = append(mismatches, "is_active must be a boolean")
		} else if data.IsActive != expected {
			mismatches = append(mismatches, fmt.Sprintf("is_active = %t, want %t", data.IsActive, expected))
		}
	}
	for _, key := range []string{"creator", "admin"} {
		if _, ok := want[key]; !ok {
			continue
		}
		expected, err := identityArg(want, key)
		if err != nil {
			mismatches = append(mismatches, err.Error())
			continue
		}
		got := data.Creator
		if key == "admin" {
			got = data.Admin
		}
		if got != expected {
			mismatches = append(mismatches, fmt.Sprintf("%s = %s, want %s", key, got, expected))
		}
	}
	if raw, ok := want["milestones"]; ok {
		statuses, isList := raw.([]any)
		if !isList {
			mismatches = append(mismatches, "milestones must be a list of statuses")
		} else {
			got := make([]string, 0, len(data.Milestones))
			for _, milestone := range data.Milestones {
				got = append(got, string(milestone.Status))
			}
			expected := make([]string, 0, len(statuses))
			for _, status := range statuses {
				expected = append(expected, fmt.Sprint(status))
			}
			if strings.Join(got, ",") != strings.Join(expected, ",") {
				mismatches = append(mismatches, fmt.Sprintf("milestones = [%s], want [%s]", strings.Join(got, ","), strings.Join(expected, ",")))
			}
		}
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("check failed: %s", strings.Join(mismatches, "; "))
	}
	return nil
}

// withSigners attaches the step's signers, or defaults when the step names none.
func withSigners(ctx context.Context, args map[string]any, defaults ...campaign.Identity) (context.Context, error) {
	raw, ok := args["signers"]
	if !ok {
		return auth.WithSigners(ctx, defaults...), nil
	}
	list, isList := raw.([]any)
	if !isList {
		return ctx, errors.New("signers must be a list of identities")
	}
	identities := make([]campaign.Identity, 0, len(list))
	for _, value := range list {
		text, isString := value.(string)
		if !isString {
			return ctx, fmt.Errorf("signer %v must be a string", value)
		}
		identity, err := campaign.ParseIdentity(text)
		if err != nil {
			return ctx, err
		}
		identities = append(identities, identity)
	}
	return auth.WithSigners(ctx, identities...), nil
}

func optionalString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", nil
	}
	text, isString := raw.(string)
	if !isString {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return strings.TrimSpace(text), nil
}

func identityArg(args map[string]any, key string) (campaign.Identity, error) {
	text, err := optionalString(args, key)
	if err != nil {
		return "", err
	}
	identity, err := campaign.ParseIdentity(text)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return identity, nil
}

// amountArg accepts Lua integers or base-10 strings; strings carry values
// beyond the float64 integer range.
func amountArg(args map[string]any, key string) (campaign.Amount, error) {
	switch value := args[key].(type) {
	case int64:
		return campaign.NewAmount(value), nil
	case string:
		amount, err := campaign.ParseAmount(strings.TrimSpace(value))
		if err != nil {
			return campaign.Amount{}, fmt.Errorf("%s: %w", key, err)
		}
		return amount, nil
	case nil:
		return campaign.Amount{}, fmt.Errorf("%s is required", key)
	default:
		return campaign.Amount{}, fmt.Errorf("%s must be an integer or a numeric string", key)
	}
}

func indexArg(args map[string]any) (uint32, error) {
	return uint32Value("index", args["index"])
}

func percentagesArg(args map[string]any, key string) ([]uint32, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	list, isList := raw.([]any)
	if !isList {
		return nil, fmt.Errorf("%s must be a list", key)
	}
	percentages := make([]uint32, 0, len(list))
	for _, value := range list {
		percentage, err := uint32Value(key, value)
		if err != nil {
			return nil, err
		}
		percentages = append(percentages, percentage)
	}
	return percentages, nil
}

func uint32Value(key string, raw any) (uint32, error) {
	var value int64
	switch v := raw.(type) {
	case int64:
		value = v
	case int:
		value = int64(v)
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if value < 0 || value > int64(^uint32(0)) {
		return 0, fmt.Errorf("%s %d is outside the uint32 range", key, value)
	}
	return uint32(value), nil
}
