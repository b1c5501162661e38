package domain

import "math/big"

// weiPerEth is the fixed-point scale shared by the base asset and the
// tradable token (both 18 decimals).
var weiPerEth = new(big.Float).SetFloat64(1e18)

// EthToWei converts a human-decimal ETH amount to 18-decimal wei.
// Negative or non-finite inputs yield zero.
func EthToWei(eth float64) *big.Int {
	if eth <= 0 || eth != eth {
		return new(big.Int)
	}
	f := new(big.Float).SetFloat64(eth)
	f.Mul(f, weiPerEth)
	wei, _ := f.Int(nil)
	return wei
}

// WeiToEth converts 18-decimal wei to a human-decimal amount.
func WeiToEth(wei *big.Int) float64 {
	if wei == nil || wei.Sign() == 0 {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEth)
	out, _ := f.Float64()
	return out
}

// ApplySlippage scales amount down by the given tolerance in basis
// points, producing the minimum-acceptable-output guard submitted with
// a trade.
func ApplySlippage(amount *big.Int, bps int64) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, big.NewInt(10000-bps))
	return out.Quo(out, big.NewInt(10000))
}
