package backtest

import (
	"math"

	"curve-strategy-lab/internal/domain"
)

// computeMetrics derives the aggregate performance numbers from a
// completed ledger and equity curve. Total P&L percent is normalized
// to the initial capital unit, intentionally a different base than the
// per-trade percent (which is relative to entry price).
func computeMetrics(trades []domain.BacktestTrade, equityCurve []domain.EquityPoint, positionSizeEth float64) *domain.BacktestResult {
	result := &domain.BacktestResult{
		TotalTrades: len(trades),
	}

	totalPnlEth := 0.0
	for _, t := range trades {
		totalPnlEth += t.PnlEth
		if t.Outcome == domain.OutcomeWin {
			result.WinningTrades++
		} else {
			result.LosingTrades++
		}
	}
	result.TotalPnlEth = totalPnlEth
	if positionSizeEth > 0 {
		result.TotalPnlPercent = totalPnlEth / positionSizeEth * 100
	}
	if len(trades) > 0 {
		result.WinRate = float64(result.WinningTrades) / float64(len(trades)) * 100
	}

	result.MaxDrawdownPercent = maxDrawdown(equityCurve, positionSizeEth)
	result.SharpeRatio = sharpeRatio(trades)

	return result
}

// maxDrawdown runs the running-peak algorithm over the equity curve:
// track the highest equity seen so far, report the largest percentage
// drop from that peak.
func maxDrawdown(equityCurve []domain.EquityPoint, initialEquity float64) float64 {
	peak := initialEquity
	maxDd := 0.0
	for _, point := range equityCurve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - point.Equity) / peak * 100
		if dd > maxDd {
			maxDd = dd
		}
	}
	return maxDd
}

// sharpeRatio computes mean per-trade P&L percent over its sample
// standard deviation (n-1 denominator). With fewer than two trades the
// deviation defaults to 1 so the ratio equals the mean; a zero
// deviation yields zero.
func sharpeRatio(trades []domain.BacktestTrade) float64 {
	avg := 0.0
	if len(trades) > 0 {
		for _, t := range trades {
			avg += t.PnlPercent
		}
		avg /= float64(len(trades))
	}

	stdDev := 1.0
	if len(trades) > 1 {
		sumSq := 0.0
		for _, t := range trades {
			d := t.PnlPercent - avg
			sumSq += d * d
		}
		stdDev = math.Sqrt(sumSq / float64(len(trades)-1))
	}

	if stdDev == 0 {
		return 0
	}
	return avg / stdDev
}
