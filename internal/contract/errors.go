package contract

import apperrors "github.com/louisbranch/milestonefund/internal/platform/errors"

// ErrCampaignNotInitialized aborts operations that run before Initialize.
var ErrCampaignNotInitialized = apperrors.New(apperrors.CodeCampaignNotInitialized, "campaign is not initialized")
