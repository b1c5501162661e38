package evm

import (
	"context"
	"math/big"
)

// Wallet signs and submits transactions on behalf of an address.
type Wallet interface {
	// Address returns the sending address.
	Address() string

	// SendTransaction submits a transaction and returns its hash.
	// Value may be nil for zero-value calls.
	SendTransaction(ctx context.Context, to, data string, value *big.Int) (string, error)
}

// NodeWallet submits transactions through eth_sendTransaction,
// relying on the node to hold and unlock the account key.
type NodeWallet struct {
	client  *Client
	address string
}

// NewNodeWallet creates a wallet for a node-managed account.
func NewNodeWallet(client *Client, address string) *NodeWallet {
	return &NodeWallet{client: client, address: address}
}

var _ Wallet = (*NodeWallet)(nil)

// Address returns the sending address.
func (w *NodeWallet) Address() string {
	return w.address
}

// SendTransaction submits via eth_sendTransaction.
func (w *NodeWallet) SendTransaction(ctx context.Context, to, data string, value *big.Int) (string, error) {
	msg := callMsg{
		From: w.address,
		To:   to,
		Data: data,
	}
	if value != nil && value.Sign() > 0 {
		msg.Value = encodeQuantity(value)
	}

	var txHash string
	if err := w.client.Call(ctx, "eth_sendTransaction", []interface{}{msg}, &txHash); err != nil {
		return "", err
	}
	return txHash, nil
}
