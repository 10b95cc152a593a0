package campaign

import (
	"encoding/json"
	"fmt"
)

// MilestoneStatus is the position of a milestone in its confirmation flow.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneCompleted MilestoneStatus = "completed"
	MilestoneApproved  MilestoneStatus = "approved"
)

// Valid reports whether s is a known status.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneCompleted, MilestoneApproved:
		return true
	default:
		return false
	}
}

// Milestone is a percentage-weighted deliverable of the campaign.
type Milestone struct {
	// Percentage is this milestone's share of the target. Immutable.
	Percentage uint32
	// Status tracks completion by the creator and approval by the admin.
	Status MilestoneStatus
}

// NewMilestone returns a pending milestone.
func NewMilestone(percentage uint32) Milestone {
	return Milestone{Percentage: percentage, Status: MilestonePending}
}

// Completed reports whether the creator marked the milestone complete.
// Approved milestones are always completed.
func (m Milestone) Completed() bool {
	return m.Status == MilestoneCompleted || m.Status == MilestoneApproved
}

// Approved reports whether the admin approved the milestone.
func (m Milestone) Approved() bool {
	return m.Status == MilestoneApproved
}

// complete moves a pending milestone to completed.
func (m Milestone) complete(index uint32) (Milestone, error) {
	if m.Completed() {
		return m, milestoneError(ErrMilestoneAlreadyCompleted.Code, ErrMilestoneAlreadyCompleted.Message, index)
	}
	m.Status = MilestoneCompleted
	return m, nil
}

// approve moves a completed milestone to approved.
func (m Milestone) approve(index uint32) (Milestone, error) {
	if !m.Completed() {
		return m, milestoneError(ErrMilestoneNotCompleted.Code, ErrMilestoneNotCompleted.Message, index)
	}
	if m.Approved() {
		return m, milestoneError(ErrMilestoneAlreadyApproved.Code, ErrMilestoneAlreadyApproved.Message, index)
	}
	m.Status = MilestoneApproved
	return m, nil
}

// milestoneRecord is the persisted shape: the status is flattened into the
// completed/approved pair that ledger clients read.
type milestoneRecord struct {
	Percentage uint32 `json:"percentage"`
	Completed  bool   `json:"completed"`
	Approved   bool   `json:"approved"`
}

// MarshalJSON encodes the milestone as percentage plus completed/approved flags.
func (m Milestone) MarshalJSON() ([]byte, error) {
	if !m.Status.Valid() {
		return nil, fmt.Errorf("milestone status %q is invalid", m.Status)
	}
	return json.Marshal(milestoneRecord{
		Percentage: m.Percentage,
		Completed:  m.Completed(),
		Approved:   m.Approved(),
	})
}

// UnmarshalJSON decodes the flag pair, rejecting approved-but-not-completed.
func (m *Milestone) UnmarshalJSON(data []byte) error {
	var record milestoneRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	status := MilestonePending
	switch {
	case record.Approved && !record.Completed:
		return fmt.Errorf("milestone is approved but not completed")
	case record.Approved:
		status = MilestoneApproved
	case record.Completed:
		status = MilestoneCompleted
	}
	*m = Milestone{Percentage: record.Percentage, Status: status}
	return nil
}
