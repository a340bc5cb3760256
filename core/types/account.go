package types

import "math/big"

// Account holds the native balance of an address. The balance carries the
// storage deposits reserved while a bounty record exists; token holdings live
// in separate TokenAccount entries.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// TokenAccount is a fungible-token holding for a single mint. Transfers out of
// a token account require the owner as the authorizing identity; for escrow
// accounts the owner is a derived, keyless authority.
type TokenAccount struct {
	Owner   [20]byte `json:"owner"`
	Mint    string   `json:"mint"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy so callers can mutate the copy freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	clone := &Account{Nonce: a.Nonce, Balance: big.NewInt(0)}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return clone
}

// Clone returns a deep copy of the token account.
func (t *TokenAccount) Clone() *TokenAccount {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Balance != nil {
		clone.Balance = new(big.Int).Set(t.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}
