package campaign

import (
	"strconv"

	apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"
)

var (
	// ErrInvalidMilestonePercentages indicates milestone percentages that do not add up to 100.
	ErrInvalidMilestonePercentages = apperrors.New(apperrors.CodeInvalidMilestonePercentages, "milestone percentages must sum to 100")
	// ErrCampaignInactive indicates a donation to an inactive campaign.
	ErrCampaignInactive = apperrors.New(apperrors.CodeCampaignInactive, "campaign is inactive")
	// ErrMilestoneAlreadyCompleted indicates a repeated completion.
	ErrMilestoneAlreadyCompleted = apperrors.New(apperrors.CodeMilestoneAlreadyCompleted, "milestone already completed")
	// ErrMilestoneNotCompleted indicates an approval before completion.
	ErrMilestoneNotCompleted = apperrors.New(apperrors.CodeMilestoneNotCompleted, "milestone not completed")
	// ErrMilestoneAlreadyApproved indicates a repeated approval.
	ErrMilestoneAlreadyApproved = apperrors.New(apperrors.CodeMilestoneAlreadyApproved, "milestone already approved")
	// ErrMilestoneNotFound indicates a milestone index outside the milestone list.
	ErrMilestoneNotFound = apperrors.New(apperrors.CodeMilestoneNotFound, "milestone not found")
	// ErrAmountOverflow indicates arithmetic outside the signed 128-bit range.
	ErrAmountOverflow = apperrors.New(apperrors.CodeAmountOverflow, "amount overflows 128-bit range")
	// ErrInvalidAmount indicates an amount that is not a 128-bit integer.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidArgument, "amount must be a 128-bit integer")
	// ErrInvalidIdentity indicates an empty identity.
	ErrInvalidIdentity = apperrors.New(apperrors.CodeInvalidArgument, "identity is required")
)

func milestoneError(code apperrors.Code, message string, index uint32) *apperrors.Error {
	return apperrors.WithMetadata(code, message, map[string]string{
		"Index": strconv.FormatUint(uint64(index), 10),
	})
}
