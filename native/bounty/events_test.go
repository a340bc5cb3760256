package bounty

import (
	"encoding/hex"
	"math/big"
	"testing"
)

func TestCreatedEventAttributes(t *testing.T) {
	record := &Bounty{
		ID:            12,
		Maintainer:    newTestAddress(0x11),
		Mint:          "OCTA",
		Amount:        big.NewInt(900),
		State:         StateCreated,
		GithubIssueID: 314,
	}
	evt := NewCreatedEvent(record)
	if evt.Type != EventTypeBountyCreated {
		t.Fatalf("type = %s", evt.Type)
	}
	if evt.Attributes["id"] != "12" {
		t.Fatalf("id attribute = %q", evt.Attributes["id"])
	}
	if evt.Attributes["maintainer"] != hex.EncodeToString(record.Maintainer[:]) {
		t.Fatalf("maintainer attribute mismatch")
	}
	if evt.Attributes["amount"] != "900" {
		t.Fatalf("amount attribute = %q", evt.Attributes["amount"])
	}
	if evt.Attributes["githubIssueId"] != "314" {
		t.Fatalf("github issue attribute = %q", evt.Attributes["githubIssueId"])
	}
	if _, ok := evt.Attributes["contributor"]; ok {
		t.Fatalf("created event must not carry a contributor")
	}
}

func TestCompletedEventMarksOverride(t *testing.T) {
	contributor := newTestAddress(0x22)
	record := &Bounty{
		ID:          3,
		Maintainer:  newTestAddress(0x11),
		Contributor: &contributor,
		Mint:        "OCTA",
		Amount:      big.NewInt(100),
		State:       StateCompleted,
	}
	plain := NewCompletedEvent(record, false)
	if _, ok := plain.Attributes["override"]; ok {
		t.Fatalf("normal completion must not carry the override flag")
	}
	overridden := NewCompletedEvent(record, true)
	if overridden.Attributes["override"] != "true" {
		t.Fatalf("override completion must be flagged")
	}
	if overridden.Attributes["contributor"] != hex.EncodeToString(contributor[:]) {
		t.Fatalf("contributor attribute mismatch")
	}
}

func TestEventOnNilRecord(t *testing.T) {
	evt := NewCancelledEvent(nil)
	if evt.Type != EventTypeBountyCancelled {
		t.Fatalf("type = %s", evt.Type)
	}
	if len(evt.Attributes) != 0 {
		t.Fatalf("nil record must produce empty attributes")
	}
}
