package mcp

import (
	"context"
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/louisbranch/milestonefund/internal/auth"
	"github.com/louisbranch/milestonefund/internal/campaign"
	"github.com/louisbranch/milestonefund/internal/contract"
	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
	"github.com/louisbranch/milestonefund/internal/storage/memory"
)

func newTestHandlers(t *testing.T, resolver consentResolver) handlers {
	t.Helper()
	svc, err := contract.New(memory.New(), auth.SignerAuthorizer{})
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}
	return handlers{service: svc, consent: resolver}
}

func trustedInit(percentages ...uint32) InitializeInput {
	return InitializeInput{
		Consent:              Consent{Signers: []string{"creator", "admin"}},
		Creator:              "creator",
		Admin:                "admin",
		TargetAmount:         "1000",
		MilestonePercentages: percentages,
	}
}

func TestHandlersTrustedFlow(t *testing.T) {
	h := newTestHandlers(t, consentResolver{trustSigners: true})
	ctx := context.Background()

	if _, _, err := h.initialize(ctx, nil, trustedInit(30, 40, 30)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	_, result, err := h.donate(ctx, nil, DonateInput{Consent: Consent{Signers: []string{"donor"}}, Donor: "donor", Amount: "250"})
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if result.Campaign.CurrentAmount != "250" {
		t.Fatalf("current amount = %s, want 250", result.Campaign.CurrentAmount)
	}
	if _, _, err := h.completeMilestone(ctx, nil, MilestoneInput{Consent: Consent{Signers: []string{"creator"}}, MilestoneIndex: 1}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, result, err = h.approveMilestone(ctx, nil, MilestoneInput{Consent: Consent{Signers: []string{"admin"}}, MilestoneIndex: 1})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	got := result.Campaign.Milestones[1]
	if got.Index != 1 || got.Percentage != 40 || got.Status != "approved" || !got.Completed || !got.Approved {
		t.Fatalf("milestone 1 = %+v", got)
	}
	if result.Campaign.Milestones[0].Status != "pending" {
		t.Fatalf("milestone 0 = %+v", result.Campaign.Milestones[0])
	}
}

func TestHandlersReportBusinessRejection(t *testing.T) {
	h := newTestHandlers(t, consentResolver{trustSigners: true})
	ctx := context.Background()

	_, _, err := h.initialize(ctx, nil, trustedInit(30, 30))
	if apperrors.GetCode(err) != apperrors.CodeInvalidMilestonePercentages {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeInvalidMilestonePercentages)
	}
	if !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("error = %q, want rejection", err.Error())
	}

	_, _, err = h.details(ctx, nil, DetailsInput{})
	if apperrors.GetCode(err) != apperrors.CodeCampaignNotInitialized {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeCampaignNotInitialized)
	}
	if !strings.Contains(err.Error(), "aborted") {
		t.Fatalf("error = %q, want abort", err.Error())
	}
}

func TestHandlersRejectUntrustedSigners(t *testing.T) {
	h := newTestHandlers(t, consentResolver{})

	_, _, err := h.initialize(context.Background(), nil, trustedInit(100))
	if err == nil {
		t.Fatal("expected signers to be refused without trust")
	}
}

func TestHandlersWithoutConsentAreUnauthorized(t *testing.T) {
	h := newTestHandlers(t, consentResolver{trustSigners: true})
	ctx := context.Background()
	if _, _, err := h.initialize(ctx, nil, trustedInit(100)); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, _, err := h.completeMilestone(ctx, nil, MilestoneInput{MilestoneIndex: 0})
	if apperrors.GetCode(err) != apperrors.CodeUnauthorized {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeUnauthorized)
	}
}

func TestHandlersVerifyConsentTokens(t *testing.T) {
	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	verifier, err := auth.NewConsentVerifier(auth.ConsentConfig{Issuer: "test", Audience: "milestonefund", Key: public})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	issuer := auth.ConsentIssuer{Issuer: "test", Audience: "milestonefund", Key: private}
	token := func(identity campaign.Identity) string {
		t.Helper()
		value, err := issuer.Issue(identity)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return value
	}

	h := newTestHandlers(t, consentResolver{verifier: verifier})
	input := trustedInit(100)
	input.Consent = Consent{ConsentTokens: []string{token("creator"), token("admin")}}
	if _, _, err := h.initialize(context.Background(), nil, input); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, _, err = h.donate(context.Background(), nil, DonateInput{
		Consent: Consent{ConsentTokens: []string{"not-a-token"}},
		Donor:   "donor",
		Amount:  "5",
	})
	if apperrors.GetCode(err) != apperrors.CodeConsentInvalid {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeConsentInvalid)
	}
}

func TestHandlersTokensWithoutVerifier(t *testing.T) {
	h := newTestHandlers(t, consentResolver{trustSigners: true})
	_, _, err := h.donate(context.Background(), nil, DonateInput{
		Consent: Consent{ConsentTokens: []string{"token"}},
		Donor:   "donor",
		Amount:  "5",
	})
	if apperrors.GetCode(err) != apperrors.CodeConsentInvalid {
		t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeConsentInvalid)
	}
}

func TestHandlersValidateInput(t *testing.T) {
	h := newTestHandlers(t, consentResolver{trustSigners: true})
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{
			name: "blank creator",
			call: func() error {
				input := trustedInit(100)
				input.Creator = " "
				_, _, err := h.initialize(ctx, nil, input)
				return err
			},
			field: "creator",
		},
		{
			name: "bad target",
			call: func() error {
				input := trustedInit(100)
				input.TargetAmount = "1.5"
				_, _, err := h.initialize(ctx, nil, input)
				return err
			},
			field: "target_amount",
		},
		{
			name: "bad amount",
			call: func() error {
				_, _, err := h.donate(ctx, nil, DonateInput{Donor: "donor", Amount: "lots"})
				return err
			},
			field: "amount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if apperrors.GetCode(err) != apperrors.CodeInvalidArgument {
				t.Fatalf("code = %s, want %s", apperrors.GetCode(err), apperrors.CodeInvalidArgument)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error = %q, want field %s", err.Error(), tt.field)
			}
		})
	}
}

func TestNewCampaignViewKeepsOrder(t *testing.T) {
	data, err := campaign.New(campaign.InitializeInput{
		Creator:              "creator",
		Admin:                "admin",
		TargetAmount:         campaign.NewAmount(10),
		MilestonePercentages: []uint32{10, 90},
	})
	if err != nil {
		t.Fatalf("new campaign: %v", err)
	}
	view := NewCampaignView(data)
	if len(view.Milestones) != 2 || view.Milestones[0].Percentage != 10 || view.Milestones[1].Index != 1 {
		t.Fatalf("view = %+v", view)
	}
	if view.TargetAmount != "10" || view.CurrentAmount != "0" || !view.IsActive {
		t.Fatalf("view = %+v", view)
	}
}
