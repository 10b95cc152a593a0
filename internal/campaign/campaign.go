package campaign

import (
	"strconv"

	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

// RequiredPercentageTotal is the exact sum milestone percentages must reach.
const RequiredPercentageTotal = 100

// Data is the campaign aggregate. Mutating methods return an updated copy and
// leave the receiver untouched, so a rejected change never leaks into state.
type Data struct {
	Creator       Identity    `json:"creator"`
	Admin         Identity    `json:"admin"`
	TargetAmount  Amount      `json:"target_amount"`
	CurrentAmount Amount      `json:"current_amount"`
	Milestones    []Milestone `json:"milestones"`
	IsActive      bool        `json:"is_active"`
}

// InitializeInput describes a new campaign.
type InitializeInput struct {
	Creator              Identity
	Admin                Identity
	TargetAmount         Amount
	MilestonePercentages []uint32
}

// New builds a fresh active campaign with one pending milestone per
// percentage, in input order.
func New(input InitializeInput) (Data, error) {
	if err := ValidatePercentages(input.MilestonePercentages); err != nil {
		return Data{}, err
	}

	milestones := make([]Milestone, 0, len(input.MilestonePercentages))
	for _, percentage := range input.MilestonePercentages {
		milestones = append(milestones, NewMilestone(percentage))
	}

	return Data{
		Creator:       input.Creator,
		Admin:         input.Admin,
		TargetAmount:  input.TargetAmount,
		CurrentAmount: Amount{},
		Milestones:    milestones,
		IsActive:      true,
	}, nil
}

// ValidatePercentages checks that the percentages add up to exactly 100.
func ValidatePercentages(percentages []uint32) error {
	var total uint64
	for _, percentage := range percentages {
		total += uint64(percentage)
	}
	if total != RequiredPercentageTotal {
		return apperrors.WithMetadata(
			ErrInvalidMilestonePercentages.Code,
			ErrInvalidMilestonePercentages.Message,
			map[string]string{"Total": strconv.FormatUint(total, 10)},
		)
	}
	return nil
}

// Clone returns a deep copy of the aggregate.
func (d Data) Clone() Data {
	clone := d
	if d.Milestones != nil {
		clone.Milestones = make([]Milestone, len(d.Milestones))
		copy(clone.Milestones, d.Milestones)
	}
	return clone
}

// Milestone returns the milestone at index.
func (d Data) Milestone(index uint32) (Milestone, error) {
	if uint64(index) >= uint64(len(d.Milestones)) {
		return Milestone{}, milestoneError(ErrMilestoneNotFound.Code, ErrMilestoneNotFound.Message, index)
	}
	return d.Milestones[index], nil
}

// Donate adds amount to the running total. Zero and negative amounts are
// accepted and the total is not capped by the target.
func (d Data) Donate(amount Amount) (Data, error) {
	if !d.IsActive {
		return d, ErrCampaignInactive
	}
	total, err := d.CurrentAmount.Add(amount)
	if err != nil {
		return d, err
	}
	next := d.Clone()
	next.CurrentAmount = total
	return next, nil
}

// CompleteMilestone marks the milestone at index completed.
func (d Data) CompleteMilestone(index uint32) (Data, error) {
	milestone, err := d.Milestone(index)
	if err != nil {
		return d, err
	}
	updated, err := milestone.complete(index)
	if err != nil {
		return d, err
	}
	next := d.Clone()
	next.Milestones[index] = updated
	return next, nil
}

// ApproveMilestone marks the completed milestone at index approved.
func (d Data) ApproveMilestone(index uint32) (Data, error) {
	milestone, err := d.Milestone(index)
	if err != nil {
		return d, err
	}
	updated, err := milestone.approve(index)
	if err != nil {
		return d, err
	}
	next := d.Clone()
	next.Milestones[index] = updated
	return next, nil
}

// Validate checks the aggregate invariants.
func (d Data) Validate() error {
	percentages := make([]uint32, 0, len(d.Milestones))
	for i, milestone := range d.Milestones {
		if !milestone.Status.Valid() {
			return milestoneError(apperrors.CodeStateCorrupt, "milestone status is invalid", uint32(i))
		}
		percentages = append(percentages, milestone.Percentage)
	}
	return ValidatePercentages(percentages)
}
