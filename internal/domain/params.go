package domain

// EntryType selects the entry predicate for a strategy.
type EntryType string

// Supported entry types. Values crossing a serialization boundary may
// carry an unrecognized type; the rule evaluator treats those as
// "never enter" rather than failing the run.
const (
	EntryPriceDip      EntryType = "price_dip"
	EntryMomentum      EntryType = "momentum"
	EntryMeanReversion EntryType = "mean_reversion"
	EntryThreshold     EntryType = "threshold"
)

// StrategyParams holds the immutable configuration of one strategy.
// Passed by value into every operation; never mutated by the engine.
type StrategyParams struct {
	EntryType             EntryType `json:"entryType"`
	EntryThresholdPercent float64   `json:"entryThresholdPercent"`
	LookbackTrades        int       `json:"lookbackTrades"`
	TakeProfitPercent     float64   `json:"takeProfitPercent"`
	StopLossPercent       float64   `json:"stopLossPercent"`
	PositionSizeEth       float64   `json:"positionSizeEth"`
}

// DefaultParams returns the default strategy configuration used when a
// strategy record is created without explicit parameters.
func DefaultParams(entryType EntryType) StrategyParams {
	if entryType == "" {
		entryType = EntryPriceDip
	}
	return StrategyParams{
		EntryType:             entryType,
		EntryThresholdPercent: -5,
		LookbackTrades:        20,
		TakeProfitPercent:     20,
		StopLossPercent:       -10,
		PositionSizeEth:       0.1,
	}
}

// KnownEntryType reports whether t is one of the supported entry types.
func KnownEntryType(t EntryType) bool {
	switch t {
	case EntryPriceDip, EntryMomentum, EntryMeanReversion, EntryThreshold:
		return true
	default:
		return false
	}
}
