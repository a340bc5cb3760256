package bounty

import (
	"errors"
	"math/big"
	"time"

	"bountychain/core/events"
	"bountychain/core/types"
)

var (
	errNilState = errors.New("bounty engine: state not configured")
)

// OverridePolicy controls which lifecycle points permit an admin override
// release. Historical variants of the protocol disagreed on whether the
// override should respect the state machine or check identities and mints
// only, so the choice is explicit rather than implied.
type OverridePolicy uint8

const (
	// OverrideGuarded restricts the override to non-terminal records, the
	// same window every other transition operates in.
	OverrideGuarded OverridePolicy = iota
	// OverrideUnguarded skips the state guard and relies on identity and
	// mint consistency alone.
	OverrideUnguarded
)

type engineState interface {
	BountyPut(*Bounty) error
	BountyGet(id uint64) (*Bounty, bool)
	BountyDelete(id uint64) error
	TokenAccountAddress(owner [20]byte, mint string) [20]byte
	TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool)
	TokenAccountInit(addr [20]byte, owner [20]byte, mint string) error
	TokenTransfer(amount *big.Int, from [20]byte, to [20]byte, authority [20]byte) error
	TokenCloseAccount(account [20]byte, rentDest [20]byte, authority [20]byte) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// adminSource resolves the current administrator at call time so a rotation
// takes effect immediately for subsequent operations.
type adminSource interface {
	Admin() ([20]byte, bool)
}

type bountyEvent struct {
	evt *types.Event
}

func (e bountyEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e bountyEvent) Event() *types.Event { return e.evt }

// Engine drives the bounty state machine over external state. Every operation
// validates signer identity, record state and cross-account consistency in
// that order and aborts on the first failure with no partial state change.
type Engine struct {
	state          engineState
	admins         adminSource
	emitter        events.Emitter
	nowFn          func() int64
	minAmount      *big.Int
	rent           *big.Int
	overridePolicy OverridePolicy
}

// NewEngine creates a bounty engine with a no-op emitter, no minimum amount
// and no storage deposit. Callers configure collaborators via the setters.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAdminSource configures the registry consulted for privileged callers.
func (e *Engine) SetAdminSource(admins adminSource) { e.admins = admins }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetMinBountyAmount configures the minimum amount accepted at creation. A
// nil or zero value disables the check.
func (e *Engine) SetMinBountyAmount(min *big.Int) {
	if min == nil || min.Sign() <= 0 {
		e.minAmount = nil
		return
	}
	e.minAmount = new(big.Int).Set(min)
}

// SetBountyRent configures the storage deposit debited from the maintainer at
// creation and returned on the terminal transition.
func (e *Engine) SetBountyRent(rent *big.Int) {
	if rent == nil || rent.Sign() <= 0 {
		e.rent = nil
		return
	}
	e.rent = new(big.Int).Set(rent)
}

// SetOverridePolicy selects the admin-override state guard behaviour.
func (e *Engine) SetOverridePolicy(policy OverridePolicy) { e.overridePolicy = policy }

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(bountyEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) admin() ([20]byte, bool) {
	if e == nil || e.admins == nil {
		return [20]byte{}, false
	}
	return e.admins.Admin()
}

// callerIsAdmin reports whether the caller equals the current registry admin.
func (e *Engine) callerIsAdmin(caller [20]byte) bool {
	admin, ok := e.admin()
	return ok && admin == caller
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func (e *Engine) loadBounty(id uint64) (*Bounty, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok := e.state.BountyGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return record, nil
}

// escrowAccount re-derives the escrow authority from the record's identity
// and stored bump and verifies it against the account actually holding the
// funds. A mismatch is fatal: the engine fails closed rather than moving
// funds under an authority it cannot reproduce.
func (e *Engine) escrowAccount(record *Bounty) (addr [20]byte, authority [20]byte, err error) {
	authority, err = AuthorityAt(record.ID, record.AuthorityBump)
	if err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	addr = e.state.TokenAccountAddress(authority, record.Mint)
	account, ok := e.state.TokenAccountGet(addr)
	if !ok {
		return [20]byte{}, [20]byte{}, ErrInvalidAuthority
	}
	if account.Owner != authority {
		return [20]byte{}, [20]byte{}, ErrInvalidAuthority
	}
	if account.Mint != record.Mint {
		return [20]byte{}, [20]byte{}, ErrMintMismatch
	}
	return addr, authority, nil
}

// payoutAccount resolves and validates the token account paid on a release,
// creating it when absent.
func (e *Engine) payoutAccount(owner [20]byte, mint string) ([20]byte, error) {
	addr := e.state.TokenAccountAddress(owner, mint)
	account, ok := e.state.TokenAccountGet(addr)
	if !ok {
		if err := e.state.TokenAccountInit(addr, owner, mint); err != nil {
			return [20]byte{}, err
		}
		return addr, nil
	}
	if account.Owner != owner {
		return [20]byte{}, ErrTokenAccountOwner
	}
	if account.Mint != mint {
		return [20]byte{}, ErrMintMismatch
	}
	return addr, nil
}

func (e *Engine) debitRent(maintainer [20]byte) error {
	if e.rent == nil {
		return nil
	}
	acc, err := e.state.GetAccount(maintainer[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	if acc.Balance.Cmp(e.rent) < 0 {
		return errors.New("bounty: insufficient balance for storage deposit")
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, e.rent)
	return e.state.PutAccount(maintainer[:], acc)
}

// refundRent returns the storage deposit to the maintainer. The deposit never
// goes to the contributor or the admin, including on admin-driven transitions.
func (e *Engine) refundRent(maintainer [20]byte) error {
	if e.rent == nil {
		return nil
	}
	acc, err := e.state.GetAccount(maintainer[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, e.rent)
	return e.state.PutAccount(maintainer[:], acc)
}

// Create locks funds for a new bounty: it derives the escrow authority for
// the identity, moves the amount from the maintainer's funding account into
// an escrow account owned by the derived authority and persists the record in
// state Created. The maintainer authorizes the lock since the funds are still
// theirs at this point.
func (e *Engine) Create(id uint64, maintainer [20]byte, mint string, amount *big.Int, githubIssueID, maintainerGithubID uint64) (*Bounty, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok := e.state.BountyGet(id); ok {
		return nil, ErrExists
	}
	normalizedMint, err := NormalizeMint(mint)
	if err != nil {
		return nil, err
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	if !amt.IsUint64() {
		return nil, ErrAmountOverflow
	}
	if e.minAmount != nil && amt.Cmp(e.minAmount) < 0 {
		return nil, ErrInsufficientAmount
	}

	authority, bump, err := DeriveAuthority(id)
	if err != nil {
		return nil, err
	}

	fundingAddr := e.state.TokenAccountAddress(maintainer, normalizedMint)
	funding, ok := e.state.TokenAccountGet(fundingAddr)
	if !ok {
		return nil, ErrTokenAccountOwner
	}
	if funding.Owner != maintainer {
		return nil, ErrTokenAccountOwner
	}
	if funding.Mint != normalizedMint {
		return nil, ErrMintMismatch
	}
	if funding.Balance.Cmp(amt) < 0 {
		return nil, ErrInsufficientFunds
	}

	escrowAddr := e.state.TokenAccountAddress(authority, normalizedMint)
	escrowExists := false
	if escrow, ok := e.state.TokenAccountGet(escrowAddr); ok {
		if escrow.Owner != authority {
			return nil, ErrInvalidAuthority
		}
		if escrow.Mint != normalizedMint {
			return nil, ErrMintMismatch
		}
		escrowExists = true
	}

	// Everything is validated; mutations from here on cannot fail a guard.
	if err := e.debitRent(maintainer); err != nil {
		return nil, err
	}
	if !escrowExists {
		if err := e.state.TokenAccountInit(escrowAddr, authority, normalizedMint); err != nil {
			return nil, err
		}
	}
	if err := e.state.TokenTransfer(amt, fundingAddr, escrowAddr, maintainer); err != nil {
		return nil, err
	}

	record := &Bounty{
		ID:                 id,
		Maintainer:         maintainer,
		Mint:               normalizedMint,
		Amount:             amt,
		State:              StateCreated,
		AuthorityBump:      bump,
		GithubIssueID:      githubIssueID,
		MaintainerGithubID: maintainerGithubID,
		CreatedAt:          e.now(),
	}
	if err := e.state.BountyPut(record); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(record))
	return record.Clone(), nil
}

// Assign sets the contributor on a Created bounty and moves it to InProgress.
// The contributor is set at most once; a second call fails with a
// state-conflict error and never overwrites the original assignment.
func (e *Engine) Assign(id uint64, caller [20]byte, contributor [20]byte, contributorGithubID uint64) error {
	record, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if caller != record.Maintainer && !e.callerIsAdmin(caller) {
		return ErrUnauthorized
	}
	if record.Contributor != nil {
		return ErrContributorAssigned
	}
	if record.State != StateCreated {
		return ErrInvalidState
	}
	if contributor == ([20]byte{}) {
		return ErrInvalidContributor
	}
	record.Contributor = &contributor
	if contributorGithubID != 0 {
		record.ContributorGithubID = &contributorGithubID
	}
	record.State = StateInProgress
	if err := e.state.BountyPut(record); err != nil {
		return err
	}
	e.emit(NewAssignedEvent(record))
	return nil
}

// Complete releases the escrowed amount to the assigned contributor, closes
// the escrow account, deletes the record and returns the storage deposit to
// the maintainer. The transfer is authorized by the re-derived escrow
// authority, never by any party's key.
func (e *Engine) Complete(id uint64, caller [20]byte) error {
	record, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if caller != record.Maintainer && !e.callerIsAdmin(caller) {
		return ErrUnauthorized
	}
	escrowAddr, authority, err := e.escrowAccount(record)
	if err != nil {
		return err
	}
	if record.State != StateInProgress {
		return ErrInvalidState
	}
	if record.Contributor == nil {
		return ErrInvalidState
	}
	destAddr, err := e.payoutAccount(*record.Contributor, record.Mint)
	if err != nil {
		return err
	}
	return e.settle(record, escrowAddr, destAddr, authority, StateCompleted, false)
}

// Cancel returns the escrowed amount to the maintainer's funding account from
// either non-terminal state, closes the escrow account and deletes the
// record.
func (e *Engine) Cancel(id uint64, caller [20]byte) error {
	record, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if caller != record.Maintainer && !e.callerIsAdmin(caller) {
		return ErrUnauthorized
	}
	escrowAddr, authority, err := e.escrowAccount(record)
	if err != nil {
		return err
	}
	if record.State != StateCreated && record.State != StateInProgress {
		return ErrInvalidState
	}
	destAddr, err := e.payoutAccount(record.Maintainer, record.Mint)
	if err != nil {
		return err
	}
	return e.settle(record, escrowAddr, destAddr, authority, StateCancelled, false)
}

// AdminOverrideRelease assigns a contributor and releases the escrow in one
// atomic step, bypassing the normal Assign then Complete sequence. Only the
// current registry admin may invoke it; the maintainer cannot. The state
// guard follows the configured override policy.
func (e *Engine) AdminOverrideRelease(id uint64, caller [20]byte, contributor [20]byte) error {
	record, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if !e.callerIsAdmin(caller) {
		return ErrUnauthorized
	}
	escrowAddr, authority, err := e.escrowAccount(record)
	if err != nil {
		return err
	}
	if e.overridePolicy == OverrideGuarded {
		if record.State != StateCreated && record.State != StateInProgress {
			return ErrInvalidState
		}
	}
	if contributor == ([20]byte{}) {
		return ErrInvalidContributor
	}
	if record.Contributor != nil && *record.Contributor != contributor {
		return ErrContributorMismatch
	}
	destAddr, err := e.payoutAccount(contributor, record.Mint)
	if err != nil {
		return err
	}
	record.Contributor = &contributor
	return e.settle(record, escrowAddr, destAddr, authority, StateCompleted, true)
}

// settle performs the shared terminal transition: move the full amount out of
// escrow under the derived authority, close the emptied escrow account with
// any residue owed to the maintainer, delete the record and return the
// storage deposit.
func (e *Engine) settle(record *Bounty, escrowAddr, destAddr, authority [20]byte, final State, override bool) error {
	amount := cloneBigInt(record.Amount)
	if amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	escrow, ok := e.state.TokenAccountGet(escrowAddr)
	if !ok {
		return ErrInvalidAuthority
	}
	if escrow.Balance.Cmp(amount) != 0 {
		return ErrEscrowImbalance
	}
	if err := e.state.TokenTransfer(amount, escrowAddr, destAddr, authority); err != nil {
		return err
	}
	if err := e.state.TokenCloseAccount(escrowAddr, record.Maintainer, authority); err != nil {
		return err
	}
	if err := e.state.BountyDelete(record.ID); err != nil {
		return err
	}
	if err := e.refundRent(record.Maintainer); err != nil {
		return err
	}
	record.State = final
	switch final {
	case StateCompleted:
		e.emit(NewCompletedEvent(record, override))
	case StateCancelled:
		e.emit(NewCancelledEvent(record))
	}
	return nil
}

// Get returns a copy of the stored record.
func (e *Engine) Get(id uint64) (*Bounty, error) {
	record, err := e.loadBounty(id)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}
