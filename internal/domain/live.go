package domain

// TradeSide distinguishes buys from sells in a live session ledger.
type TradeSide string

// TradeStatus records whether an on-chain call confirmed or failed.
type TradeStatus string

// Live trade constants.
const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"

	StatusConfirmed TradeStatus = "confirmed"
	StatusFailed    TradeStatus = "failed"
)

// LiveExecutedTrade records one on-chain buy or sell attempt.
// Failed attempts are appended with zero amounts, never dropped.
// Pnl fields are populated only on confirmed sells.
type LiveExecutedTrade struct {
	Side        TradeSide   `json:"side"`
	EthAmount   float64     `json:"ethAmount"`
	TokenAmount float64     `json:"tokenAmount"`
	Price       float64     `json:"price"`
	Timestamp   int64       `json:"timestamp"` // unix milliseconds
	TxHash      string      `json:"txHash,omitempty"`
	Status      TradeStatus `json:"status"`
	PnlPercent  float64     `json:"pnlPercent,omitempty"`
	PnlEth      float64     `json:"pnlEth,omitempty"`
}

// LiveStrategyResult holds the aggregate totals of a live session,
// computed from confirmed buys and sells after the loop finishes.
type LiveStrategyResult struct {
	TotalPnlEth     float64 `json:"totalPnlEth"`
	TotalPnlPercent float64 `json:"totalPnlPercent"`
	TotalVolumeEth  float64 `json:"totalVolumeEth"`
	TradesExecuted  int     `json:"tradesExecuted"`
	Buys            int     `json:"buys"`
	Sells           int     `json:"sells"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
}
