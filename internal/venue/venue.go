// Package venue defines the abstract trading-venue capability the live
// executor drives. A venue is one bonding-curve market; the curve
// contract itself is the spender for token approvals.
//
// All monetary and token quantities are 18-decimal fixed-point
// integers. Conversion to human decimals happens at the engine
// boundary, never inside a venue implementation.
package venue

import (
	"context"
	"math/big"
)

// TxHash identifies a submitted transaction.
type TxHash string

// Receipt is the confirmation result of a transaction.
type Receipt struct {
	TxHash      TxHash
	Status      uint64 // 1 = success, 0 = reverted
	BlockNumber uint64
}

// TradeVenue is the capability set consumed by the live executor.
// Quote methods (SimulateBuy, QuoteSell, BalanceOf, Allowance) are
// read-only; Buy, Sell and Approve submit transactions that must be
// awaited via AwaitConfirmation.
type TradeVenue interface {
	// SimulateBuy returns the expected token output for ethIn without
	// changing state. A zero output signals the curve cannot fill the
	// buy (graduated or drained).
	SimulateBuy(ctx context.Context, ethIn *big.Int) (*big.Int, error)

	// Buy submits a buy of ethIn with a minimum-output guard.
	Buy(ctx context.Context, ethIn, minTokensOut *big.Int, deadline int64) (TxHash, error)

	// Sell submits a sell of tokensIn with a minimum-output guard.
	// Requires a sufficient approval for the curve.
	Sell(ctx context.Context, tokensIn, minEthOut *big.Int, deadline int64) (TxHash, error)

	// QuoteSell returns the expected ETH output for selling tokensIn.
	QuoteSell(ctx context.Context, tokensIn *big.Int) (*big.Int, error)

	// BalanceOf returns the owner's current token balance.
	BalanceOf(ctx context.Context, owner string) (*big.Int, error)

	// Allowance returns the owner's current approval for the curve.
	Allowance(ctx context.Context, owner string) (*big.Int, error)

	// Approve submits an approval of amount for the curve.
	Approve(ctx context.Context, amount *big.Int) (TxHash, error)

	// AwaitConfirmation blocks until the transaction confirms or
	// fails. A reverted transaction is an error.
	AwaitConfirmation(ctx context.Context, tx TxHash) (*Receipt, error)
}
