// Package campaign provides the milestone-gated crowdfunding aggregate.
//
// A campaign is a single record per contract instance. It is created once by
// initialization and replaced wholesale by every later mutation; nothing in
// this package touches storage or checks who is calling.
//
// # Campaign data
//
// Data carries the creator and administrator identities, the fundraising
// target, the running donation total, an active flag, and the ordered
// milestone list. The milestone list is fixed at initialization and its
// percentages always add up to exactly 100.
//
// # Milestones
//
// Each milestone moves forward through three states:
//
//	pending --(creator completes)--> completed --(admin approves)--> approved
//
// Both transitions are one-way. Repeating a transition is reported as an
// error rather than ignored. Because the state is a single tagged value, an
// approved milestone is always a completed one.
//
// # Amounts
//
// Amount is a signed 128-bit integer. Arithmetic that leaves that range fails
// with an overflow error instead of wrapping.
package campaign
