package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeInvalidMilestonePercentages = "INVALID_MILESTONE_PERCENTAGES"
	CodeCampaignInactive            = "CAMPAIGN_INACTIVE"
	CodeMilestoneAlreadyCompleted   = "MILESTONE_ALREADY_COMPLETED"
	CodeMilestoneNotCompleted       = "MILESTONE_NOT_COMPLETED"
	CodeMilestoneAlreadyApproved    = "MILESTONE_ALREADY_APPROVED"
	CodeUnauthorized                = "UNAUTHORIZED"
	CodeMilestoneNotFound           = "MILESTONE_NOT_FOUND"
	CodeCampaignNotInitialized      = "CAMPAIGN_NOT_INITIALIZED"
	CodeAmountOverflow              = "AMOUNT_OVERFLOW"
	CodeInvalidArgument             = "INVALID_ARGUMENT"
	CodeConsentInvalid              = "CONSENT_INVALID"
	CodeStateCorrupt                = "STATE_CORRUPT"
)

var enUSMessages = map[Code]string{
	CodeInvalidMilestonePercentages: "Milestone percentages must add up to 100{{if .Total}} (got {{.Total}}){{end}}.",
	CodeCampaignInactive:            "The campaign is no longer accepting donations.",
	CodeMilestoneAlreadyCompleted:   "Milestone {{.Index}} is already completed.",
	CodeMilestoneNotCompleted:       "Milestone {{.Index}} must be completed before it can be approved.",
	CodeMilestoneAlreadyApproved:    "Milestone {{.Index}} is already approved.",
	CodeUnauthorized:                "This action requires consent from {{.Identity}}.",
	CodeMilestoneNotFound:           "Milestone {{.Index}} does not exist.",
	CodeCampaignNotInitialized:      "The campaign has not been initialized.",
	CodeAmountOverflow:              "The amount exceeds the supported range.",
	CodeInvalidArgument:             "The request is invalid{{if .Field}}: {{.Field}}{{end}}.",
	CodeConsentInvalid:              "The consent token could not be verified.",
	CodeStateCorrupt:                "The stored campaign state is unreadable.",
}
