package domain

// PricePoint is one element of a normalized price series.
// Invariants: series sorted ascending by timestamp, at most one point
// per timestamp, price strictly positive and finite.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // unix seconds
	Price     float64 `json:"price"`
}

// EquityPoint is one sample of the simulated capital value.
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"` // unix seconds
	Equity    float64 `json:"equity"`
}
