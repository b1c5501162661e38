package domain

// CurveToken describes one bonding-curve market as reported by the
// subgraph. Monetary fields are already converted to ETH decimals.
type CurveToken struct {
	ID             string  `json:"id"`    // curve contract address
	Token          string  `json:"token"` // ERC-20 token address
	Name           string  `json:"name"`
	Symbol         string  `json:"symbol"`
	Creator        string  `json:"creator"`
	CreatedAt      int64   `json:"createdAt"` // unix seconds
	Graduated      bool    `json:"graduated"`
	LastPriceEth   float64 `json:"lastPriceEth"`
	LastPriceUsd   float64 `json:"lastPriceUsd"`
	LastTradeAt    int64   `json:"lastTradeAt"`
	TotalVolumeEth float64 `json:"totalVolumeEth"`
	EthCollected   float64 `json:"ethCollected"`
	TradeCount     int64   `json:"tradeCount"`
	AthPriceEth    float64 `json:"athPriceEth"`
}

// CurveTrade is one raw trade record from the market-data source.
// Price may be zero when the source carried an unparsable value; the
// normalizer drops such points.
type CurveTrade struct {
	ID          string  `json:"id"`
	CurveID     string  `json:"curveId"`
	Side        string  `json:"side"` // "buy" | "sell"
	AmountEth   float64 `json:"amountEth"`
	AmountToken float64 `json:"amountToken"`
	PriceEth    float64 `json:"priceEth"`
	Trader      string  `json:"trader"`
	Timestamp   int64   `json:"timestamp"` // unix seconds
	TxHash      string  `json:"txHash"`
}
