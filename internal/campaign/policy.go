package campaign

// Operation identifies one of the contract entry points.
type Operation int

const (
	// OperationUnspecified represents an invalid operation.
	OperationUnspecified Operation = iota
	// OperationInitialize creates the campaign.
	OperationInitialize
	// OperationDonate adds to the donation total.
	OperationDonate
	// OperationCompleteMilestone marks a milestone completed.
	OperationCompleteMilestone
	// OperationApproveMilestone marks a completed milestone approved.
	OperationApproveMilestone
	// OperationGetDetails reads the aggregate.
	OperationGetDetails
)

// String returns the wire name of the operation.
func (o Operation) String() string {
	switch o {
	case OperationInitialize:
		return "initialize"
	case OperationDonate:
		return "donate"
	case OperationCompleteMilestone:
		return "complete_milestone"
	case OperationApproveMilestone:
		return "approve_milestone"
	case OperationGetDetails:
		return "get_campaign_details"
	default:
		return "unspecified"
	}
}

// Mutates reports whether the operation writes the aggregate.
func (o Operation) Mutates() bool {
	switch o {
	case OperationInitialize, OperationDonate, OperationCompleteMilestone, OperationApproveMilestone:
		return true
	default:
		return false
	}
}

// RequiredSigners lists the identities whose consent the operation needs, in
// the order they are checked. For OperationInitialize, state holds the
// proposed creator and admin; for OperationDonate, caller is the donor.
// Milestone operations authorize against the stored roles, never a caller
// supplied identity.
func RequiredSigners(op Operation, state Data, caller Identity) []Identity {
	switch op {
	case OperationInitialize:
		return []Identity{state.Creator, state.Admin}
	case OperationDonate:
		return []Identity{caller}
	case OperationCompleteMilestone:
		return []Identity{state.Creator}
	case OperationApproveMilestone:
		return []Identity{state.Admin}
	default:
		return nil
	}
}
