// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Campaign business-rule errors
	CodeInvalidMilestonePercentages Code = "INVALID_MILESTONE_PERCENTAGES"
	CodeCampaignInactive            Code = "CAMPAIGN_INACTIVE"
	CodeMilestoneAlreadyCompleted   Code = "MILESTONE_ALREADY_COMPLETED"
	CodeMilestoneNotCompleted       Code = "MILESTONE_NOT_COMPLETED"
	CodeMilestoneAlreadyApproved    Code = "MILESTONE_ALREADY_APPROVED"

	// Invocation aborts
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeMilestoneNotFound      Code = "MILESTONE_NOT_FOUND"
	CodeCampaignNotInitialized Code = "CAMPAIGN_NOT_INITIALIZED"
	CodeAmountOverflow         Code = "AMOUNT_OVERFLOW"
	CodeInvalidArgument        Code = "INVALID_ARGUMENT"
	CodeConsentInvalid         Code = "CONSENT_INVALID"
	CodeStateCorrupt           Code = "STATE_CORRUPT"
)

// contractCodes holds the numeric codes exposed to ledger clients for typed
// business errors. Aborts carry no numeric code.
var contractCodes = map[Code]uint32{
	CodeInvalidMilestonePercentages: 1,
	CodeCampaignInactive:            2,
	CodeMilestoneAlreadyCompleted:   3,
	CodeMilestoneNotCompleted:       4,
	CodeMilestoneAlreadyApproved:    5,
}

// ContractCode returns the numeric contract error code for business errors.
func (c Code) ContractCode() (uint32, bool) {
	value, ok := contractCodes[c]
	return value, ok
}

// CodeFromContractCode resolves a numeric contract error code.
func CodeFromContractCode(value uint32) (Code, bool) {
	for code, candidate := range contractCodes {
		if candidate == value {
			return code, true
		}
	}
	return CodeUnknown, false
}

// IsAbort reports whether the code discards the invocation instead of
// returning a typed business error.
func (c Code) IsAbort() bool {
	_, business := contractCodes[c]
	return !business
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidMilestonePercentages,
		CodeInvalidArgument:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCampaignInactive,
		CodeMilestoneAlreadyCompleted,
		CodeMilestoneNotCompleted,
		CodeMilestoneAlreadyApproved:
		return codes.FailedPrecondition

	case CodeMilestoneNotFound,
		CodeCampaignNotInitialized:
		return codes.NotFound

	case CodeUnauthorized:
		return codes.PermissionDenied

	case CodeConsentInvalid:
		return codes.Unauthenticated

	case CodeAmountOverflow:
		return codes.OutOfRange

	case CodeStateCorrupt:
		return codes.DataLoss

	default:
		return codes.Internal
	}
}
