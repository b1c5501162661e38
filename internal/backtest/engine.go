// Package backtest runs a parameterized strategy against a normalized
// price series, producing a deterministic trade ledger, equity curve
// and performance metrics.
package backtest

import (
	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/strategy"
)

// minExtraPoints is the number of usable points required beyond the
// lookback window. Series at or below lookback+minExtraPoints yield an
// empty result rather than an error: callers routinely probe markets
// with little history.
const minExtraPoints = 10

// position tracks the single open position during a run.
// The engine is single-position: no pyramiding.
type position struct {
	entryPrice     float64
	entryTimestamp int64
}

// Run replays the price series once, deterministically. Equity
// compounds strictly left-to-right: each trade's ETH P&L is computed
// against the equity at the time of that trade, not initial capital.
func Run(points []domain.PricePoint, params domain.StrategyParams) *domain.BacktestResult {
	if len(points) <= params.LookbackTrades+minExtraPoints {
		return emptyResult(points)
	}

	var (
		trades []domain.BacktestTrade
		open   *position
		equity = params.PositionSizeEth
	)

	equityCurve := make([]domain.EquityPoint, 0, len(points)-params.LookbackTrades+1)
	equityCurve = append(equityCurve, domain.EquityPoint{
		Timestamp: points[0].Timestamp,
		Equity:    equity,
	})

	for i := params.LookbackTrades; i < len(points); i++ {
		current := points[i]

		if open == nil {
			reference := meanPrice(points[i-params.LookbackTrades : i])
			if strategy.ShouldEnter(params, current.Price, reference) {
				open = &position{
					entryPrice:     current.Price,
					entryTimestamp: current.Timestamp,
				}
			}
		} else if reason, exit := strategy.ShouldExit(params, current.Price, open.entryPrice); exit {
			trade := closeTrade(open, current, equity, reason)
			trades = append(trades, trade)
			equity += trade.PnlEth
			open = nil
		}

		// One equity point per iteration, even when unchanged, so the
		// curve covers every input point from the lookback onward.
		equityCurve = append(equityCurve, domain.EquityPoint{
			Timestamp: current.Timestamp,
			Equity:    equity,
		})
	}

	// Every opened position is closed: force-close against the last
	// point when the series ends mid-position.
	if open != nil {
		last := points[len(points)-1]
		trade := closeTrade(open, last, equity, domain.ExitEndOfData)
		trades = append(trades, trade)
		equity += trade.PnlEth
	}

	result := computeMetrics(trades, equityCurve, params.PositionSizeEth)
	result.Trades = trades
	result.EquityCurve = equityCurve
	result.PriceHistory = points
	return result
}

// closeTrade builds the immutable ledger record for an exit at the
// given point. P&L percent is relative to entry price; P&L ETH is
// relative to current equity (compounding).
func closeTrade(open *position, at domain.PricePoint, equity float64, reason domain.ExitReason) domain.BacktestTrade {
	pnlPercent := (at.Price - open.entryPrice) / open.entryPrice * 100
	pnlEth := equity * pnlPercent / 100

	outcome := domain.OutcomeWin
	if pnlPercent < 0 {
		outcome = domain.OutcomeLoss
	}

	return domain.BacktestTrade{
		EntryTimestamp: open.entryTimestamp,
		ExitTimestamp:  at.Timestamp,
		EntryPrice:     open.entryPrice,
		ExitPrice:      at.Price,
		PnlPercent:     pnlPercent,
		PnlEth:         pnlEth,
		Outcome:        outcome,
		ExitReason:     reason,
	}
}

// meanPrice returns the arithmetic mean of the window, summed left to
// right for deterministic floating-point results.
func meanPrice(window []domain.PricePoint) float64 {
	sum := 0.0
	for _, p := range window {
		sum += p.Price
	}
	return sum / float64(len(window))
}

// emptyResult is the soft-failure result for insufficient data: zero
// trades, no equity curve, but price history populated for display.
func emptyResult(points []domain.PricePoint) *domain.BacktestResult {
	return &domain.BacktestResult{
		Trades:       []domain.BacktestTrade{},
		EquityCurve:  []domain.EquityPoint{},
		PriceHistory: points,
	}
}
