package core

import (
	"math/big"
	"sync"

	"bountychain/core/events"
	"bountychain/core/state"
	"bountychain/native/bounty"
	"bountychain/native/registry"
	"bountychain/storage"
)

// Node wires the state manager and the native engines behind a single mutex:
// every operation on a record is applied atomically and sequentially relative
// to other operations on the same state.
type Node struct {
	stateMu sync.Mutex
	state   *state.Manager

	bountyEngine   *bounty.Engine
	registryEngine *registry.Engine
}

// Options configure the engines at construction time.
type Options struct {
	MinBountyAmount *big.Int
	BountyRent      *big.Int
	OverridePolicy  bounty.OverridePolicy
	Emitter         events.Emitter
}

// NewNode creates a node over the given database.
func NewNode(db storage.Database, opts Options) *Node {
	manager := state.NewManager(db)

	registryEngine := registry.NewEngine()
	registryEngine.SetState(manager)
	registryEngine.SetEmitter(opts.Emitter)

	bountyEngine := bounty.NewEngine()
	bountyEngine.SetState(manager)
	bountyEngine.SetAdminSource(registryEngine)
	bountyEngine.SetEmitter(opts.Emitter)
	bountyEngine.SetMinBountyAmount(opts.MinBountyAmount)
	bountyEngine.SetBountyRent(opts.BountyRent)
	bountyEngine.SetOverridePolicy(opts.OverridePolicy)

	return &Node{
		state:          manager,
		bountyEngine:   bountyEngine,
		registryEngine: registryEngine,
	}
}

// --- Bounty lifecycle ---

func (n *Node) BountyCreate(id uint64, maintainer [20]byte, mint string, amount *big.Int, githubIssueID, maintainerGithubID uint64) (*bounty.Bounty, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.Create(id, maintainer, mint, amount, githubIssueID, maintainerGithubID)
}

func (n *Node) BountyAssign(id uint64, caller [20]byte, contributor [20]byte, contributorGithubID uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.Assign(id, caller, contributor, contributorGithubID)
}

func (n *Node) BountyComplete(id uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.Complete(id, caller)
}

func (n *Node) BountyCancel(id uint64, caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.Cancel(id, caller)
}

func (n *Node) BountyAdminOverrideRelease(id uint64, caller [20]byte, contributor [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.AdminOverrideRelease(id, caller, contributor)
}

func (n *Node) BountyGet(id uint64) (*bounty.Bounty, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.bountyEngine.Get(id)
}

// --- Admin registry ---

func (n *Node) RegistryInitialize(caller [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.registryEngine.Initialize(caller)
}

func (n *Node) RegistryRotateAdmin(caller [20]byte, newAdmin [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.registryEngine.Rotate(caller, newAdmin)
}

func (n *Node) RegistryAdmin() ([20]byte, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.registryEngine.Admin()
}

// --- Ledger queries and funding ---

// TokenMint issues tokens to an owner, used by genesis funding and tooling.
func (n *Node) TokenMint(owner [20]byte, mint string, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.TokenMint(owner, mint, amount)
}

// TokenBalance reports the owner's balance for a mint.
func (n *Node) TokenBalance(owner [20]byte, mint string) *big.Int {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.state.TokenBalance(owner, mint)
}
