package grpc

import "github.com/louisbranch/milestonefund/internal/campaign"

// InitializeRequest creates the campaign.
type InitializeRequest struct {
	Creator              string          `json:"creator"`
	Admin                string          `json:"admin"`
	TargetAmount         campaign.Amount `json:"target_amount"`
	MilestonePercentages []uint32        `json:"milestone_percentages"`
}

// InitializeResponse is empty on success.
type InitializeResponse struct{}

// DonateRequest adds amount to the campaign total on behalf of donor.
type DonateRequest struct {
	Donor  string          `json:"donor"`
	Amount campaign.Amount `json:"amount"`
}

// DonateResponse is empty on success.
type DonateResponse struct{}

// MilestoneRequest addresses one milestone by index.
type MilestoneRequest struct {
	MilestoneIndex uint32 `json:"milestone_index"`
}

// MilestoneResponse is empty on success.
type MilestoneResponse struct{}

// GetCampaignDetailsRequest reads the campaign.
type GetCampaignDetailsRequest struct{}

// GetCampaignDetailsResponse carries the stored campaign.
type GetCampaignDetailsResponse struct {
	Campaign campaign.Data `json:"campaign"`
}
