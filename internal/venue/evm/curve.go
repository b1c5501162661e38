package evm

import (
	"context"
	"fmt"
	"math/big"

	"curve-strategy-lab/internal/venue"
)

// Contract function signatures. Selectors are derived at startup.
var (
	selGetCurveInfo    = selector("getCurveInfo()")
	selSimulateBuy     = selector("simulateBuy(uint256)")
	selGetEthForTokens = selector("getEthForTokens(uint256)")
	selBuy             = selector("buy(uint256,uint256)")
	selSell            = selector("sell(uint256,uint256,uint256)")

	selBalanceOf = selector("balanceOf(address)")
	selAllowance = selector("allowance(address,address)")
	selApprove   = selector("approve(address,uint256)")
)

// CurveVenue drives a single bonding-curve contract over JSON-RPC.
// The curve contract is the spender for token approvals; the traded
// token address is read from the curve itself at construction.
type CurveVenue struct {
	client *Client
	wallet Wallet

	curveAddr string
	tokenAddr string
}

// NewCurveVenue resolves the curve's token address and returns a venue
// bound to it.
func NewCurveVenue(ctx context.Context, client *Client, wallet Wallet, curveAddr string) (*CurveVenue, error) {
	data, err := client.EthCall(ctx, curveAddr, encodeCall(selGetCurveInfo))
	if err != nil {
		return nil, fmt.Errorf("get curve info for %s: %w", curveAddr, err)
	}
	tokenAddr, err := decodeWordAddress(data, 0)
	if err != nil {
		return nil, fmt.Errorf("decode curve token address: %w", err)
	}

	return &CurveVenue{
		client:    client,
		wallet:    wallet,
		curveAddr: curveAddr,
		tokenAddr: tokenAddr,
	}, nil
}

var _ venue.TradeVenue = (*CurveVenue)(nil)

// TokenAddress returns the address of the token the curve trades.
func (v *CurveVenue) TokenAddress() string {
	return v.tokenAddr
}

// SimulateBuy quotes a buy. The contract returns
// (ethToUse, tokensOut, refund, willGraduate); tokensOut is word 1.
func (v *CurveVenue) SimulateBuy(ctx context.Context, ethIn *big.Int) (*big.Int, error) {
	data, err := v.client.EthCall(ctx, v.curveAddr, encodeCall(selSimulateBuy, encodeUint256(ethIn)))
	if err != nil {
		return nil, fmt.Errorf("simulate buy: %w", err)
	}
	return decodeWord(data, 1)
}

// QuoteSell quotes the ETH output for selling tokensIn.
func (v *CurveVenue) QuoteSell(ctx context.Context, tokensIn *big.Int) (*big.Int, error) {
	data, err := v.client.EthCall(ctx, v.curveAddr, encodeCall(selGetEthForTokens, encodeUint256(tokensIn)))
	if err != nil {
		return nil, fmt.Errorf("quote sell: %w", err)
	}
	return decodeWord(data, 0)
}

// Buy submits a buy, sending ethIn as transaction value.
func (v *CurveVenue) Buy(ctx context.Context, ethIn, minTokensOut *big.Int, deadline int64) (venue.TxHash, error) {
	data := encodeCall(selBuy,
		encodeUint256(minTokensOut),
		encodeUint256(big.NewInt(deadline)),
	)
	txHash, err := v.wallet.SendTransaction(ctx, v.curveAddr, data, ethIn)
	if err != nil {
		return "", fmt.Errorf("submit buy: %w", err)
	}
	return venue.TxHash(txHash), nil
}

// Sell submits a sell of tokensIn.
func (v *CurveVenue) Sell(ctx context.Context, tokensIn, minEthOut *big.Int, deadline int64) (venue.TxHash, error) {
	data := encodeCall(selSell,
		encodeUint256(tokensIn),
		encodeUint256(minEthOut),
		encodeUint256(big.NewInt(deadline)),
	)
	txHash, err := v.wallet.SendTransaction(ctx, v.curveAddr, data, nil)
	if err != nil {
		return "", fmt.Errorf("submit sell: %w", err)
	}
	return venue.TxHash(txHash), nil
}

// BalanceOf reads the token balance of owner.
func (v *CurveVenue) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	ownerWord, err := encodeAddress(owner)
	if err != nil {
		return nil, err
	}
	data, err := v.client.EthCall(ctx, v.tokenAddr, encodeCall(selBalanceOf, ownerWord))
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", owner, err)
	}
	return decodeWord(data, 0)
}

// Allowance reads the owner's token approval for the curve.
func (v *CurveVenue) Allowance(ctx context.Context, owner string) (*big.Int, error) {
	ownerWord, err := encodeAddress(owner)
	if err != nil {
		return nil, err
	}
	spenderWord, err := encodeAddress(v.curveAddr)
	if err != nil {
		return nil, err
	}
	data, err := v.client.EthCall(ctx, v.tokenAddr, encodeCall(selAllowance, ownerWord, spenderWord))
	if err != nil {
		return nil, fmt.Errorf("allowance of %s: %w", owner, err)
	}
	return decodeWord(data, 0)
}

// Approve submits a token approval for the curve.
func (v *CurveVenue) Approve(ctx context.Context, amount *big.Int) (venue.TxHash, error) {
	spenderWord, err := encodeAddress(v.curveAddr)
	if err != nil {
		return "", err
	}
	data := encodeCall(selApprove, spenderWord, encodeUint256(amount))
	txHash, err := v.wallet.SendTransaction(ctx, v.tokenAddr, data, nil)
	if err != nil {
		return "", fmt.Errorf("submit approve: %w", err)
	}
	return venue.TxHash(txHash), nil
}

// AwaitConfirmation polls for the receipt and treats a reverted
// transaction as an error.
func (v *CurveVenue) AwaitConfirmation(ctx context.Context, tx venue.TxHash) (*venue.Receipt, error) {
	receipt, err := v.client.WaitMined(ctx, string(tx))
	if err != nil {
		return nil, err
	}

	status, err := parseQuantity(receipt.Status)
	if err != nil {
		return nil, fmt.Errorf("parse receipt status: %w", err)
	}
	if status == 0 {
		return nil, fmt.Errorf("transaction %s reverted", tx)
	}

	blockNumber, err := parseQuantity(receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("parse block number: %w", err)
	}

	return &venue.Receipt{
		TxHash:      tx,
		Status:      status,
		BlockNumber: blockNumber,
	}, nil
}

// parseQuantity parses a 0x-prefixed JSON-RPC quantity.
func parseQuantity(s string) (uint64, error) {
	raw, err := decodeHexBytes(s)
	if err != nil {
		return 0, err
	}
	return new(big.Int).SetBytes(raw).Uint64(), nil
}
