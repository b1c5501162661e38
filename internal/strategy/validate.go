package strategy

import (
	"errors"

	"curve-strategy-lab/internal/domain"
)

// Validation errors.
var (
	ErrUnknownEntryType  = errors.New("unknown entry type")
	ErrInvalidLookback   = errors.New("lookbackTrades must be >= 1")
	ErrInvalidTakeProfit = errors.New("takeProfitPercent must be >= 0")
	ErrInvalidStopLoss   = errors.New("stopLossPercent must be <= 0")
	ErrInvalidPosition   = errors.New("positionSizeEth must be > 0")
)

// ValidateParams checks strategy parameters at the API boundary.
// The engine itself tolerates unknown entry types (fails closed); this
// exists so callers get a clear error instead of a silent zero-trade
// result when they typo a type.
func ValidateParams(params domain.StrategyParams) error {
	if !domain.KnownEntryType(params.EntryType) {
		return ErrUnknownEntryType
	}
	if params.LookbackTrades < 1 {
		return ErrInvalidLookback
	}
	if params.TakeProfitPercent < 0 {
		return ErrInvalidTakeProfit
	}
	if params.StopLossPercent > 0 {
		return ErrInvalidStopLoss
	}
	if params.PositionSizeEth <= 0 {
		return ErrInvalidPosition
	}
	return nil
}
