// Package stub provides an in-memory bonding-curve venue for tests and
// paper trading. Prices follow a constant-product curve over virtual
// reserves, so repeated buys move the price the way a real curve would.
package stub

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"curve-strategy-lab/internal/venue"
)

// Venue is an in-memory venue.TradeVenue implementation.
type Venue struct {
	mu sync.Mutex

	ethReserve   *big.Int
	tokenReserve *big.Int

	balances   map[string]*big.Int
	allowances map[string]*big.Int

	owner   string // the single wallet the stub serves
	txSeq   uint64
	pending map[venue.TxHash]func() error

	// Failure injection
	failBuys     bool
	failSells    bool
	zeroSimulate bool
}

// NewVenue creates a stub venue with the given virtual reserves,
// serving a single owner wallet.
func NewVenue(owner string, ethReserve, tokenReserve *big.Int) *Venue {
	return &Venue{
		ethReserve:   new(big.Int).Set(ethReserve),
		tokenReserve: new(big.Int).Set(tokenReserve),
		balances:     make(map[string]*big.Int),
		allowances:   make(map[string]*big.Int),
		owner:        owner,
		pending:      make(map[venue.TxHash]func() error),
	}
}

var _ venue.TradeVenue = (*Venue)(nil)

// FailBuys makes buy submissions revert on confirmation.
func (v *Venue) FailBuys(fail bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failBuys = fail
}

// FailSells makes sell submissions revert on confirmation.
func (v *Venue) FailSells(fail bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failSells = fail
}

// ZeroSimulate makes SimulateBuy return zero, as a graduated curve does.
func (v *Venue) ZeroSimulate(zero bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zeroSimulate = zero
}

// SetBalance overrides the owner's token balance, modeling transfers
// that happen outside the executor.
func (v *Venue) SetBalance(owner string, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[owner] = new(big.Int).Set(amount)
}

// quoteOut computes the constant-product output for an input amount.
func quoteOut(inAmount, inReserve, outReserve *big.Int) *big.Int {
	if inAmount.Sign() <= 0 || inReserve.Sign() <= 0 || outReserve.Sign() <= 0 {
		return new(big.Int)
	}
	// out = outReserve * in / (inReserve + in)
	num := new(big.Int).Mul(outReserve, inAmount)
	den := new(big.Int).Add(inReserve, inAmount)
	return num.Quo(num, den)
}

// SimulateBuy returns the expected token output for ethIn.
func (v *Venue) SimulateBuy(_ context.Context, ethIn *big.Int) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.zeroSimulate {
		return new(big.Int), nil
	}
	return quoteOut(ethIn, v.ethReserve, v.tokenReserve), nil
}

// QuoteSell returns the expected ETH output for selling tokensIn.
func (v *Venue) QuoteSell(_ context.Context, tokensIn *big.Int) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return quoteOut(tokensIn, v.tokenReserve, v.ethReserve), nil
}

// Buy submits a buy transaction. The fill settles on confirmation.
func (v *Venue) Buy(_ context.Context, ethIn, minTokensOut *big.Int, _ int64) (venue.TxHash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	in := new(big.Int).Set(ethIn)
	minOut := new(big.Int).Set(minTokensOut)

	return v.submit(func() error {
		if v.failBuys {
			return fmt.Errorf("execution reverted")
		}
		out := quoteOut(in, v.ethReserve, v.tokenReserve)
		if out.Cmp(minOut) < 0 {
			return fmt.Errorf("execution reverted: slippage")
		}
		v.ethReserve.Add(v.ethReserve, in)
		v.tokenReserve.Sub(v.tokenReserve, out)
		v.credit(v.balances, v.owner, out)
		return nil
	}), nil
}

// Sell submits a sell transaction. Requires a sufficient allowance.
func (v *Venue) Sell(_ context.Context, tokensIn, minEthOut *big.Int, _ int64) (venue.TxHash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	in := new(big.Int).Set(tokensIn)
	minOut := new(big.Int).Set(minEthOut)

	return v.submit(func() error {
		if v.failSells {
			return fmt.Errorf("execution reverted")
		}
		if v.lookup(v.allowances, v.owner).Cmp(in) < 0 {
			return fmt.Errorf("execution reverted: insufficient allowance")
		}
		if v.lookup(v.balances, v.owner).Cmp(in) < 0 {
			return fmt.Errorf("execution reverted: insufficient balance")
		}
		out := quoteOut(in, v.tokenReserve, v.ethReserve)
		if out.Cmp(minOut) < 0 {
			return fmt.Errorf("execution reverted: slippage")
		}
		v.tokenReserve.Add(v.tokenReserve, in)
		v.ethReserve.Sub(v.ethReserve, out)
		v.debit(v.balances, v.owner, in)
		v.debit(v.allowances, v.owner, in)
		return nil
	}), nil
}

// BalanceOf returns the owner's token balance.
func (v *Venue) BalanceOf(_ context.Context, owner string) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.lookup(v.balances, owner)), nil
}

// Allowance returns the owner's approval for the curve.
func (v *Venue) Allowance(_ context.Context, owner string) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.lookup(v.allowances, owner)), nil
}

// Approve submits an approval transaction.
func (v *Venue) Approve(_ context.Context, amount *big.Int) (venue.TxHash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	amt := new(big.Int).Set(amount)
	return v.submit(func() error {
		v.allowances[v.owner] = new(big.Int).Set(amt)
		return nil
	}), nil
}

// AwaitConfirmation settles the pending transaction.
func (v *Venue) AwaitConfirmation(_ context.Context, tx venue.TxHash) (*venue.Receipt, error) {
	v.mu.Lock()
	settle, ok := v.pending[tx]
	delete(v.pending, tx)
	v.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", tx)
	}
	if err := settle(); err != nil {
		return nil, err
	}
	return &venue.Receipt{TxHash: tx, Status: 1, BlockNumber: 1}, nil
}

// submit registers a settlement closure under a fresh hash.
// Caller must hold the lock.
func (v *Venue) submit(settle func() error) venue.TxHash {
	v.txSeq++
	tx := venue.TxHash(fmt.Sprintf("0xstub%08d", v.txSeq))
	v.pending[tx] = func() error {
		v.mu.Lock()
		defer v.mu.Unlock()
		return settle()
	}
	return tx
}

func (v *Venue) lookup(m map[string]*big.Int, owner string) *big.Int {
	if b, ok := m[owner]; ok {
		return b
	}
	return new(big.Int)
}

func (v *Venue) credit(m map[string]*big.Int, owner string, amount *big.Int) {
	m[owner] = new(big.Int).Add(v.lookup(m, owner), amount)
}

func (v *Venue) debit(m map[string]*big.Int, owner string, amount *big.Int) {
	m[owner] = new(big.Int).Sub(v.lookup(m, owner), amount)
}
