package domain

// Outcome classifies a completed trade by the sign of its P&L.
type Outcome string

// Outcome constants.
const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// ExitReason records why a simulated position was closed.
type ExitReason string

// Exit reason codes.
const (
	ExitTakeProfit ExitReason = "take_profit"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitEndOfData  ExitReason = "end_of_data"
)

// BacktestTrade is an immutable record of one completed entry+exit
// cycle. Appended to the ledger exactly once, at the moment of exit.
type BacktestTrade struct {
	EntryTimestamp int64      `json:"entryTimestamp"`
	ExitTimestamp  int64      `json:"exitTimestamp"`
	EntryPrice     float64    `json:"entryPrice"`
	ExitPrice      float64    `json:"exitPrice"`
	PnlPercent     float64    `json:"pnlPercent"`
	PnlEth         float64    `json:"pnlEth"`
	Outcome        Outcome    `json:"outcome"`
	ExitReason     ExitReason `json:"exitReason"`
}

// BacktestResult aggregates all trades of one simulation run plus the
// full equity curve and the price history sampled for display.
// Computed once per run, never partially updated.
type BacktestResult struct {
	TotalTrades        int     `json:"totalTrades"`
	WinningTrades      int     `json:"winningTrades"`
	LosingTrades       int     `json:"losingTrades"`
	WinRate            float64 `json:"winRate"`
	TotalPnlPercent    float64 `json:"totalPnlPercent"`
	TotalPnlEth        float64 `json:"totalPnlEth"`
	MaxDrawdownPercent float64 `json:"maxDrawdownPercent"`
	SharpeRatio        float64 `json:"sharpeRatio"`

	Trades       []BacktestTrade `json:"trades"`
	EquityCurve  []EquityPoint   `json:"equityCurve"`
	PriceHistory []PricePoint    `json:"priceHistory"`
}

// BacktestRun ties a persisted result to the strategy and curve it was
// produced from. RunID is a deterministic hash of the run inputs.
type BacktestRun struct {
	RunID      string         `json:"runId"`
	StrategyID string         `json:"strategyId"`
	CurveID    string         `json:"curveId"`
	Params     StrategyParams `json:"params"`
	Result     BacktestResult `json:"result"`
	ExecutedAt int64          `json:"executedAt"` // unix seconds
}
