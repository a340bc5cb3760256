// Package state implements the persistent state manager backing the native
// engines: native accounts, fungible-token accounts, bounty records and the
// admin registry, all RLP-encoded over a key-value store.
package state

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"bountychain/core/types"
	"bountychain/native/bounty"
	"bountychain/native/registry"
	"bountychain/storage"
)

// Ledger-level failures, independent of any lifecycle semantics.
var (
	ErrTokenAccountNotFound = errors.New("ledger: token account not found")
	ErrTokenAccountExists   = errors.New("ledger: token account already exists")
	ErrNotAccountOwner      = errors.New("ledger: authority does not own the account")
	ErrMintMismatch         = errors.New("ledger: mint mismatch between accounts")
	ErrInsufficientFunds    = errors.New("ledger: insufficient token balance")
	ErrAccountNotEmpty      = errors.New("ledger: cannot close account with remaining balance")
	ErrInvalidAmount        = errors.New("ledger: amount must be positive")
)

const (
	accountPrefix = "acct:"
	tokenPrefix   = "tok:"
	bountyPrefix  = "bounty:"
	registryKey   = "registry"
)

// Manager mediates all reads and writes against the backing database. The
// node serializes access, so the manager itself holds no locks.
type Manager struct {
	db storage.Database
}

func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountKey(addr []byte) []byte {
	return append([]byte(accountPrefix), addr...)
}

func tokenKey(addr [20]byte) []byte {
	return append([]byte(tokenPrefix), addr[:]...)
}

func bountyKey(id uint64) []byte {
	key := make([]byte, len(bountyPrefix)+8)
	copy(key, bountyPrefix)
	binary.BigEndian.PutUint64(key[len(bountyPrefix):], id)
	return key
}

// --- Native accounts ---

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the native account for an address, returning a fresh zero
// account when none is stored yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	data, err := m.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, err
	}
	balance := stored.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return &types.Account{Nonce: stored.Nonce, Balance: balance}, nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return errors.New("state: nil account")
	}
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	data, err := rlp.EncodeToBytes(&storedAccount{Nonce: account.Nonce, Balance: balance})
	if err != nil {
		return err
	}
	return m.db.Put(accountKey(addr), data)
}

// --- Token ledger ---

type storedTokenAccount struct {
	Owner   [20]byte
	Mint    string
	Balance *big.Int
}

// TokenAccountAddress derives the canonical token account address for an
// owner and mint pair. The derivation is deterministic so every component
// resolves the same account without coordination.
func (m *Manager) TokenAccountAddress(owner [20]byte, mint string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("token_assoc"), owner[:], []byte(mint))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

func (m *Manager) TokenAccountGet(addr [20]byte) (*types.TokenAccount, bool) {
	data, err := m.db.Get(tokenKey(addr))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	stored := new(storedTokenAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false
	}
	balance := stored.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	return &types.TokenAccount{Owner: stored.Owner, Mint: stored.Mint, Balance: balance}, true
}

func (m *Manager) putTokenAccount(addr [20]byte, account *types.TokenAccount) error {
	balance := account.Balance
	if balance == nil {
		balance = big.NewInt(0)
	}
	data, err := rlp.EncodeToBytes(&storedTokenAccount{Owner: account.Owner, Mint: account.Mint, Balance: balance})
	if err != nil {
		return err
	}
	return m.db.Put(tokenKey(addr), data)
}

// TokenAccountInit creates an empty token account at the address.
func (m *Manager) TokenAccountInit(addr [20]byte, owner [20]byte, mint string) error {
	if _, ok := m.TokenAccountGet(addr); ok {
		return ErrTokenAccountExists
	}
	return m.putTokenAccount(addr, &types.TokenAccount{Owner: owner, Mint: mint, Balance: big.NewInt(0)})
}

// TokenTransfer moves amount between token accounts. The authorizing identity
// must own the source account; both accounts must exist and carry the same
// mint. The transfer applies fully or not at all.
func (m *Manager) TokenTransfer(amount *big.Int, from [20]byte, to [20]byte, authority [20]byte) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	source, ok := m.TokenAccountGet(from)
	if !ok {
		return ErrTokenAccountNotFound
	}
	dest, ok := m.TokenAccountGet(to)
	if !ok {
		return ErrTokenAccountNotFound
	}
	if source.Owner != authority {
		return ErrNotAccountOwner
	}
	if source.Mint != dest.Mint {
		return ErrMintMismatch
	}
	if source.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	source.Balance = new(big.Int).Sub(source.Balance, amount)
	dest.Balance = new(big.Int).Add(dest.Balance, amount)
	if err := m.putTokenAccount(from, source); err != nil {
		return err
	}
	return m.putTokenAccount(to, dest)
}

// TokenCloseAccount removes an emptied token account. Only the owner can
// close; a non-zero balance is never silently discarded.
func (m *Manager) TokenCloseAccount(account [20]byte, rentDest [20]byte, authority [20]byte) error {
	existing, ok := m.TokenAccountGet(account)
	if !ok {
		return ErrTokenAccountNotFound
	}
	if existing.Owner != authority {
		return ErrNotAccountOwner
	}
	if existing.Balance.Sign() != 0 {
		return ErrAccountNotEmpty
	}
	_ = rentDest // token accounts carry no separate deposit in this ledger
	return m.db.Delete(tokenKey(account))
}

// TokenMint credits freshly issued tokens to the owner's account for the
// mint, creating the account when absent. Used by genesis funding and tests.
func (m *Manager) TokenMint(owner [20]byte, mint string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	addr := m.TokenAccountAddress(owner, mint)
	account, ok := m.TokenAccountGet(addr)
	if !ok {
		account = &types.TokenAccount{Owner: owner, Mint: mint, Balance: big.NewInt(0)}
	}
	account.Balance = new(big.Int).Add(account.Balance, amount)
	return m.putTokenAccount(addr, account)
}

// TokenBalance returns the balance of the owner's account for the mint, zero
// when the account does not exist.
func (m *Manager) TokenBalance(owner [20]byte, mint string) *big.Int {
	account, ok := m.TokenAccountGet(m.TokenAccountAddress(owner, mint))
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(account.Balance)
}

// --- Bounty records ---

type storedBounty struct {
	ID                  uint64
	Maintainer          [20]byte
	Contributor         []byte
	Mint                string
	Amount              *big.Int
	State               uint8
	AuthorityBump       uint8
	GithubIssueID       uint64
	MaintainerGithubID  uint64
	HasContributorGhID  bool
	ContributorGithubID uint64
	CreatedAt           uint64
}

func (m *Manager) BountyPut(record *bounty.Bounty) error {
	sanitized, err := bounty.Sanitize(record)
	if err != nil {
		return err
	}
	stored := &storedBounty{
		ID:                 sanitized.ID,
		Maintainer:         sanitized.Maintainer,
		Mint:               sanitized.Mint,
		Amount:             sanitized.Amount,
		State:              uint8(sanitized.State),
		AuthorityBump:      sanitized.AuthorityBump,
		GithubIssueID:      sanitized.GithubIssueID,
		MaintainerGithubID: sanitized.MaintainerGithubID,
		CreatedAt:          uint64(sanitized.CreatedAt),
	}
	if sanitized.Contributor != nil {
		stored.Contributor = append([]byte(nil), sanitized.Contributor[:]...)
	}
	if sanitized.ContributorGithubID != nil {
		stored.HasContributorGhID = true
		stored.ContributorGithubID = *sanitized.ContributorGithubID
	}
	data, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return m.db.Put(bountyKey(sanitized.ID), data)
}

func (m *Manager) BountyGet(id uint64) (*bounty.Bounty, bool) {
	data, err := m.db.Get(bountyKey(id))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	stored := new(storedBounty)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false
	}
	record := &bounty.Bounty{
		ID:                 stored.ID,
		Maintainer:         stored.Maintainer,
		Mint:               stored.Mint,
		Amount:             stored.Amount,
		State:              bounty.State(stored.State),
		AuthorityBump:      stored.AuthorityBump,
		GithubIssueID:      stored.GithubIssueID,
		MaintainerGithubID: stored.MaintainerGithubID,
		CreatedAt:          int64(stored.CreatedAt),
	}
	if record.Amount == nil {
		record.Amount = big.NewInt(0)
	}
	if len(stored.Contributor) == 20 {
		var contributor [20]byte
		copy(contributor[:], stored.Contributor)
		record.Contributor = &contributor
	}
	if stored.HasContributorGhID {
		ghID := stored.ContributorGithubID
		record.ContributorGithubID = &ghID
	}
	return record, true
}

// BountyDelete reclaims the record's storage. Terminal transitions call this
// exactly once; no tombstone remains reachable afterwards.
func (m *Manager) BountyDelete(id uint64) error {
	return m.db.Delete(bountyKey(id))
}

// --- Admin registry ---

type storedRegistry struct {
	Admin [20]byte
}

func (m *Manager) RegistryGet() (*registry.Registry, bool) {
	data, err := m.db.Get([]byte(registryKey))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	stored := new(storedRegistry)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false
	}
	return &registry.Registry{Admin: stored.Admin}, true
}

func (m *Manager) RegistryPut(reg *registry.Registry) error {
	if reg == nil {
		return errors.New("state: nil registry")
	}
	data, err := rlp.EncodeToBytes(&storedRegistry{Admin: reg.Admin})
	if err != nil {
		return err
	}
	return m.db.Put([]byte(registryKey), data)
}
