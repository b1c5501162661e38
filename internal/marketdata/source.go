// Package marketdata fetches curves and trades from the bonding-curve
// subgraph. The rest of the system consumes it through the TradeSource
// interface so tests and offline tools can substitute a stub.
package marketdata

import (
	"context"

	"curve-strategy-lab/internal/domain"
)

// Order controls the timestamp ordering of fetched trades.
type Order string

// Trade orderings. The simulation engine requests ascending order for
// chronological processing.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// TradeSource provides historical trades for a curve.
type TradeSource interface {
	// FetchTrades returns up to limit trades for the curve, ordered by
	// timestamp in the requested direction.
	FetchTrades(ctx context.Context, curveID string, limit int, order Order) ([]domain.CurveTrade, error)
}

// CurveSource provides curve listings for the screener.
type CurveSource interface {
	// GetCurve returns a single curve by its contract address, or nil
	// if the subgraph does not know it.
	GetCurve(ctx context.Context, curveID string) (*domain.CurveToken, error)

	// ListCurves returns curves ordered by total volume descending.
	ListCurves(ctx context.Context, limit int) ([]domain.CurveToken, error)

	// EthPrice returns the current ETH/USD price, falling back to a
	// fixed value when the source cannot provide one.
	EthPrice(ctx context.Context) float64
}
