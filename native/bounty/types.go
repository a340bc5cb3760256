package bounty

import (
	"fmt"
	"math/big"
	"strings"
)

// State represents the lifecycle states of a bounty record.
type State uint8

const (
	StateCreated State = iota
	StateInProgress
	StateCompleted
	StateCancelled
)

// Valid reports whether the state value is within the supported range.
func (s State) Valid() bool {
	switch s {
	case StateCreated, StateInProgress, StateCompleted, StateCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the state permits no further transitions. Records
// in a terminal state are deleted, so a stored record is never terminal; the
// predicate exists for guards and event payloads.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Bounty captures the escrow record for a single funded issue. ID, Maintainer,
// Mint and Amount are immutable after creation; Contributor is set at most
// once. AuthorityBump is the derivation disambiguator chosen at creation so
// every later operation reproduces the same escrow authority without
// re-searching.
type Bounty struct {
	ID                  uint64
	Maintainer          [20]byte
	Contributor         *[20]byte
	Mint                string
	Amount              *big.Int
	State               State
	AuthorityBump       uint8
	GithubIssueID       uint64
	MaintainerGithubID  uint64
	ContributorGithubID *uint64
	CreatedAt           int64
}

// Clone returns a deep copy of the bounty so callers can safely mutate the
// copy without affecting the stored instance.
func (b *Bounty) Clone() *Bounty {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Amount != nil {
		clone.Amount = new(big.Int).Set(b.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	if b.Contributor != nil {
		contributor := *b.Contributor
		clone.Contributor = &contributor
	}
	if b.ContributorGithubID != nil {
		ghID := *b.ContributorGithubID
		clone.ContributorGithubID = &ghID
	}
	return &clone
}

// NormalizeMint validates a mint symbol and returns the canonical uppercase
// form. Mint symbols are opaque to the engine beyond being non-empty.
func NormalizeMint(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return "", ErrInvalidMint
	}
	return trimmed, nil
}

// Sanitize validates and normalises the supplied bounty record, returning a
// cloned instance with canonical mint casing and a non-nil amount. The
// original value is not mutated.
func Sanitize(b *Bounty) (*Bounty, error) {
	if b == nil {
		return nil, fmt.Errorf("bounty: nil record")
	}
	clone := b.Clone()
	mint, err := NormalizeMint(clone.Mint)
	if err != nil {
		return nil, err
	}
	clone.Mint = mint
	if clone.Amount == nil {
		clone.Amount = big.NewInt(0)
	}
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("bounty: amount must be non-negative")
	}
	if !clone.State.Valid() {
		return nil, fmt.Errorf("bounty: invalid state: %d", clone.State)
	}
	// Contributor presence is coupled to the state machine, never free-form.
	if clone.Contributor == nil && clone.State != StateCreated {
		return nil, fmt.Errorf("bounty: state %s requires a contributor", clone.State)
	}
	if clone.Contributor != nil && clone.State == StateCreated {
		return nil, fmt.Errorf("bounty: contributor set before assignment")
	}
	return clone, nil
}
