package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/platform/timeouts"
)

// InitializeInput creates or replaces the campaign.
type InitializeInput struct {
	Consent
	Creator              string   `json:"creator" jsonschema:"identity of the campaign creator"`
	Admin                string   `json:"admin" jsonschema:"identity of the campaign admin"`
	TargetAmount         string   `json:"target_amount" jsonschema:"funding target as a base-10 integer"`
	MilestonePercentages []uint32 `json:"milestone_percentages" jsonschema:"milestone shares of the target, summing to 100"`
}

// DonateInput adds an amount to the campaign total.
type DonateInput struct {
	Consent
	Donor  string `json:"donor" jsonschema:"identity of the donor"`
	Amount string `json:"amount" jsonschema:"donation as a base-10 integer"`
}

// MilestoneInput addresses one milestone.
type MilestoneInput struct {
	Consent
	MilestoneIndex uint32 `json:"milestone_index" jsonschema:"zero-based milestone index"`
}

// DetailsInput reads the campaign.
type DetailsInput struct{}

// MilestoneView is one milestone in tool output.
type MilestoneView struct {
	Index      uint32 `json:"index" jsonschema:"zero-based milestone index"`
	Percentage uint32 `json:"percentage" jsonschema:"share of the target"`
	Status     string `json:"status" jsonschema:"pending, completed or approved"`
	Completed  bool   `json:"completed" jsonschema:"creator marked the milestone complete"`
	Approved   bool   `json:"approved" jsonschema:"admin approved the milestone"`
}

// CampaignView is the campaign as reported by tools and resources.
type CampaignView struct {
	Creator       string          `json:"creator" jsonschema:"creator identity"`
	Admin         string          `json:"admin" jsonschema:"admin identity"`
	TargetAmount  string          `json:"target_amount" jsonschema:"funding target"`
	CurrentAmount string          `json:"current_amount" jsonschema:"sum of all donations"`
	IsActive      bool            `json:"is_active" jsonschema:"campaign accepts donations"`
	Milestones    []MilestoneView `json:"milestones" jsonschema:"milestones in creation order"`
}

// CampaignResult wraps the campaign state after a tool call.
type CampaignResult struct {
	Campaign CampaignView `json:"campaign" jsonschema:"campaign state"`
}

// InitializeTool defines the campaign_initialize tool.
func InitializeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "campaign_initialize",
		Description: "Creates the campaign; requires consent from the creator and the admin",
	}
}

// DonateTool defines the campaign_donate tool.
func DonateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "campaign_donate",
		Description: "Donates to an active campaign; requires consent from the donor",
	}
}

// CompleteMilestoneTool defines the milestone_complete tool.
func CompleteMilestoneTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "milestone_complete",
		Description: "Marks a milestone completed; requires consent from the creator",
	}
}

// ApproveMilestoneTool defines the milestone_approve tool.
func ApproveMilestoneTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "milestone_approve",
		Description: "Approves a completed milestone; requires consent from the admin",
	}
}

// DetailsTool defines the campaign_details tool.
func DetailsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "campaign_details",
		Description: "Returns the campaign state",
	}
}

func registerTools(server *mcp.Server, h handlers) {
	mcp.AddTool(server, InitializeTool(), h.initialize)
	mcp.AddTool(server, DonateTool(), h.donate)
	mcp.AddTool(server, CompleteMilestoneTool(), h.completeMilestone)
	mcp.AddTool(server, ApproveMilestoneTool(), h.approveMilestone)
	mcp.AddTool(server, DetailsTool(), h.details)
}

type handlers struct {
	service contract.Service
	consent consentResolver
}

func (h handlers) initialize(ctx context.Context, _ *mcp.CallToolRequest, input InitializeInput) (*mcp.CallToolResult, CampaignResult, error) {
	creator, err := campaign.ParseIdentity(input.Creator)
	if err != nil {
		return nil, CampaignResult{}, fieldError("creator", err)
	}
	admin, err := campaign.ParseIdentity(input.Admin)
	if err != nil {
		return nil, CampaignResult{}, fieldError("admin", err)
	}
	target, err := campaign.ParseAmount(input.TargetAmount)
	if err != nil {
		return nil, CampaignResult{}, fieldError("target_amount", err)
	}
	return h.mutate(ctx, input.Consent, "campaign initialize", func(ctx context.Context) error {
		return h.service.Initialize(ctx, campaign.InitializeInput{
			Creator:              creator,
			Admin:                admin,
			TargetAmount:         target,
			MilestonePercentages: input.MilestonePercentages,
		})
	})
}

func (h handlers) donate(ctx context.Context, _ *mcp.CallToolRequest, input DonateInput) (*mcp.CallToolResult, CampaignResult, error) {
	donor, err := campaign.ParseIdentity(input.Donor)
	if err != nil {
		return nil, CampaignResult{}, fieldError("donor", err)
	}
	amount, err := campaign.ParseAmount(input.Amount)
	if err != nil {
		return nil, CampaignResult{}, fieldError("amount", err)
	}
	return h.mutate(ctx, input.Consent, "campaign donate", func(ctx context.Context) error {
		return h.service.Donate(ctx, donor, amount)
	})
}

func (h handlers) completeMilestone(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneInput) (*mcp.CallToolResult, CampaignResult, error) {
	return h.mutate(ctx, input.Consent, "milestone complete", func(ctx context.Context) error {
		return h.service.CompleteMilestone(ctx, input.MilestoneIndex)
	})
}

func (h handlers) approveMilestone(ctx context.Context, _ *mcp.CallToolRequest, input MilestoneInput) (*mcp.CallToolResult, CampaignResult, error) {
	return h.mutate(ctx, input.Consent, "milestone approve", func(ctx context.Context) error {
		return h.service.ApproveMilestone(ctx, input.MilestoneIndex)
	})
}

func (h handlers) details(ctx context.Context, _ *mcp.CallToolRequest, _ DetailsInput) (*mcp.CallToolResult, CampaignResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
	defer cancel()

	data, err := h.service.GetCampaignDetails(runCtx)
	if err != nil {
		return nil, CampaignResult{}, toolError("campaign details", err)
	}
	return nil, CampaignResult{Campaign: NewCampaignView(data)}, nil
}

// mutate runs call with the consenting signers attached and reports the
// resulting campaign state.
func (h handlers) mutate(ctx context.Context, consent Consent, action string, call func(context.Context) error) (*mcp.CallToolResult, CampaignResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolCall)
	defer cancel()

	signedCtx, err := h.consent.attach(runCtx, consent)
	if err != nil {
		return nil, CampaignResult{}, toolError(action, err)
	}
	if err := call(signedCtx); err != nil {
		return nil, CampaignResult{}, toolError(action, err)
	}
	data, err := h.service.GetCampaignDetails(runCtx)
	if err != nil {
		return nil, CampaignResult{}, toolError(action, err)
	}
	return nil, CampaignResult{Campaign: NewCampaignView(data)}, nil
}

// NewCampaignView converts campaign data for tool output.
func NewCampaignView(data campaign.Data) CampaignView {
	milestones := make([]MilestoneView, 0, len(data.Milestones))
	for i, milestone := range data.Milestones {
		milestones = append(milestones, MilestoneView{
			Index:      uint32(i),
			Percentage: milestone.Percentage,
			Status:     string(milestone.Status),
			Completed:  milestone.Completed(),
			Approved:   milestone.Approved(),
		})
	}
	return CampaignView{
		Creator:       data.Creator.String(),
		Admin:         data.Admin.String(),
		TargetAmount:  data.TargetAmount.String(),
		CurrentAmount: data.CurrentAmount.String(),
		IsActive:      data.IsActive,
		Milestones:    milestones,
	}
}

// toolError reports err with its code so agents can tell business rejections
// from aborts.
func toolError(action string, err error) error {
	code := apperrors.GetCode(err)
	kind := "aborted"
	if !code.IsAbort() {
		kind = "rejected"
	}
	return fmt.Errorf("%s %s (%s): %w", action, kind, code, err)
}

func fieldError(field string, err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidArgument, fmt.Sprintf("invalid %s: %v", field, err), err)
}
