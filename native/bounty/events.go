package bounty

import (
	"encoding/hex"
	"strconv"

	"bountychain/core/types"
)

const (
	EventTypeBountyCreated   = "bounty.created"
	EventTypeBountyAssigned  = "bounty.assigned"
	EventTypeBountyCompleted = "bounty.completed"
	EventTypeBountyCancelled = "bounty.cancelled"
)

// NewCreatedEvent returns the canonical event payload for a newly created
// bounty.
func NewCreatedEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeBountyCreated, b) }

// NewAssignedEvent returns the canonical event payload emitted when a
// contributor is assigned.
func NewAssignedEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeBountyAssigned, b) }

// NewCompletedEvent returns the canonical event payload for a release of
// escrowed funds to the contributor. The override flag marks admin-driven
// releases that bypassed the normal assign step.
func NewCompletedEvent(b *Bounty, override bool) *types.Event {
	evt := newBountyEvent(EventTypeBountyCompleted, b)
	if override {
		evt.Attributes["override"] = "true"
	}
	return evt
}

// NewCancelledEvent returns the canonical event payload for a refund of
// escrowed funds to the maintainer.
func NewCancelledEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeBountyCancelled, b) }

func newBountyEvent(eventType string, b *Bounty) *types.Event {
	attrs := make(map[string]string)
	if b == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(b.ID, 10)
	attrs["maintainer"] = hex.EncodeToString(b.Maintainer[:])
	attrs["mint"] = b.Mint
	if b.Amount != nil {
		attrs["amount"] = b.Amount.String()
	}
	attrs["state"] = b.State.String()
	if b.Contributor != nil {
		attrs["contributor"] = hex.EncodeToString(b.Contributor[:])
	}
	if b.GithubIssueID != 0 {
		attrs["githubIssueId"] = strconv.FormatUint(b.GithubIssueID, 10)
	}
	if b.ContributorGithubID != nil {
		attrs["contributorGithubId"] = strconv.FormatUint(*b.ContributorGithubID, 10)
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
