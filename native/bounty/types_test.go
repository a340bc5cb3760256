package bounty

import (
	"math/big"
	"testing"
)

func TestNormalizeMint(t *testing.T) {
	got, err := NormalizeMint("  octa ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "OCTA" {
		t.Fatalf("normalize = %q, want OCTA", got)
	}
	if _, err := NormalizeMint("   "); err == nil {
		t.Fatalf("empty mint must be rejected")
	}
}

func TestSanitizeCouplesContributorAndState(t *testing.T) {
	contributor := newTestAddress(0x22)
	cases := []struct {
		name    string
		record  *Bounty
		wantErr bool
	}{
		{
			name:   "created without contributor",
			record: &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Mint: "OCTA", Amount: big.NewInt(10), State: StateCreated},
		},
		{
			name:   "in progress with contributor",
			record: &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Contributor: &contributor, Mint: "OCTA", Amount: big.NewInt(10), State: StateInProgress},
		},
		{
			name:    "in progress without contributor",
			record:  &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Mint: "OCTA", Amount: big.NewInt(10), State: StateInProgress},
			wantErr: true,
		},
		{
			name:    "created with contributor",
			record:  &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Contributor: &contributor, Mint: "OCTA", Amount: big.NewInt(10), State: StateCreated},
			wantErr: true,
		},
		{
			name:    "negative amount",
			record:  &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Mint: "OCTA", Amount: big.NewInt(-1), State: StateCreated},
			wantErr: true,
		},
		{
			name:    "invalid state value",
			record:  &Bounty{ID: 1, Maintainer: newTestAddress(0x11), Mint: "OCTA", Amount: big.NewInt(10), State: State(9)},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sanitize(tc.record)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	contributor := newTestAddress(0x22)
	ghID := uint64(99)
	original := &Bounty{
		ID:                  5,
		Maintainer:          newTestAddress(0x11),
		Contributor:         &contributor,
		Mint:                "OCTA",
		Amount:              big.NewInt(777),
		State:               StateInProgress,
		ContributorGithubID: &ghID,
	}
	clone := original.Clone()
	clone.Amount.SetInt64(1)
	clone.Contributor[0] = 0xFF
	*clone.ContributorGithubID = 1

	if original.Amount.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("amount aliased between clone and original")
	}
	if original.Contributor[0] != 0x22 {
		t.Fatalf("contributor aliased between clone and original")
	}
	if *original.ContributorGithubID != 99 {
		t.Fatalf("contributor github id aliased")
	}
}

func TestStateStringAndTerminal(t *testing.T) {
	if StateCreated.Terminal() || StateInProgress.Terminal() {
		t.Fatalf("non-terminal states flagged terminal")
	}
	if !StateCompleted.Terminal() || !StateCancelled.Terminal() {
		t.Fatalf("terminal states not flagged")
	}
	if StateCreated.String() != "created" || StateCancelled.String() != "cancelled" {
		t.Fatalf("unexpected state names: %s %s", StateCreated, StateCancelled)
	}
}
