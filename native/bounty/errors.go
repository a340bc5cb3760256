package bounty

import "errors"

var (
	// Input validation.
	ErrZeroAmount         = errors.New("bounty: amount must be greater than zero")
	ErrInsufficientAmount = errors.New("bounty: amount below configured minimum")
	ErrInvalidMint        = errors.New("bounty: invalid mint")
	ErrInsufficientFunds  = errors.New("bounty: funding account balance below bounty amount")
	ErrInvalidContributor = errors.New("bounty: invalid contributor address")

	// Authorization.
	ErrUnauthorized     = errors.New("bounty: caller not authorized for this operation")
	ErrInvalidAuthority = errors.New("bounty: derived escrow authority mismatch")

	// State conflicts.
	ErrNotFound            = errors.New("bounty: record not found")
	ErrExists              = errors.New("bounty: record already exists")
	ErrInvalidState        = errors.New("bounty: invalid state for this operation")
	ErrContributorAssigned = errors.New("bounty: contributor already assigned")

	// Cross-account consistency.
	ErrMintMismatch        = errors.New("bounty: mint mismatch between record and token account")
	ErrTokenAccountOwner   = errors.New("bounty: token account owner mismatch")
	ErrContributorMismatch = errors.New("bounty: contributor does not match payout destination")

	// Arithmetic. Amounts are fixed at creation; these guard future extension.
	ErrAmountOverflow  = errors.New("bounty: arithmetic overflow in amount computation")
	ErrEscrowImbalance = errors.New("bounty: escrow balance does not match the locked amount")
)
