// Package strategy holds the pure entry/exit rule evaluator shared by
// the simulation engine and the planning side of live execution.
package strategy

import (
	"curve-strategy-lab/internal/domain"
)

// ShouldEnter decides whether to open a position at currentPrice given
// the reference price (arithmetic mean of the lookback window).
//
// Unrecognized entry types never enter. No trade is safer than a bad
// trade, so forward-incompatible values fail closed instead of erroring.
func ShouldEnter(params domain.StrategyParams, currentPrice, referencePrice float64) bool {
	if referencePrice <= 0 {
		return false
	}

	changePercent := (currentPrice - referencePrice) / referencePrice * 100

	switch params.EntryType {
	case domain.EntryPriceDip:
		// Buy when price drops by entryThresholdPercent
		return changePercent <= params.EntryThresholdPercent

	case domain.EntryMomentum:
		// Buy when price rises by entryThresholdPercent
		return changePercent >= params.EntryThresholdPercent

	case domain.EntryMeanReversion:
		// Dip buy expecting a bounce; same predicate as price_dip,
		// kept distinct for labeling
		return changePercent <= params.EntryThresholdPercent

	case domain.EntryThreshold:
		// Absolute level crossing rather than a relative-change test
		return currentPrice >= referencePrice*(1+params.EntryThresholdPercent/100)

	default:
		return false
	}
}

// ShouldExit decides whether to close a position opened at entryPrice.
// Returns the exit reason and true when an exit threshold is crossed.
// Take-profit is checked first and wins ties with stop-loss.
func ShouldExit(params domain.StrategyParams, currentPrice, entryPrice float64) (domain.ExitReason, bool) {
	pnlPercent := (currentPrice - entryPrice) / entryPrice * 100

	if pnlPercent >= params.TakeProfitPercent {
		return domain.ExitTakeProfit, true
	}

	if pnlPercent <= params.StopLossPercent {
		return domain.ExitStopLoss, true
	}

	return "", false
}
