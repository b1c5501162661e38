// Package stub provides in-memory marketdata sources for tests and
// offline tooling.
package stub

import (
	"context"
	"sort"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/marketdata"
)

// TradeSource serves pre-seeded trades from memory.
type TradeSource struct {
	trades map[string][]domain.CurveTrade
	err    error
}

// NewTradeSource creates an empty stub source.
func NewTradeSource() *TradeSource {
	return &TradeSource{trades: make(map[string][]domain.CurveTrade)}
}

// Seed replaces the trades served for a curve.
func (s *TradeSource) Seed(curveID string, trades []domain.CurveTrade) {
	s.trades[curveID] = trades
}

// Fail makes every subsequent fetch return err.
func (s *TradeSource) Fail(err error) {
	s.err = err
}

// FetchTrades returns seeded trades ordered by timestamp.
func (s *TradeSource) FetchTrades(_ context.Context, curveID string, limit int, order marketdata.Order) ([]domain.CurveTrade, error) {
	if s.err != nil {
		return nil, s.err
	}

	src := s.trades[curveID]
	out := make([]domain.CurveTrade, len(src))
	copy(out, src)

	sort.SliceStable(out, func(i, j int) bool {
		if order == marketdata.OrderDesc {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].Timestamp < out[j].Timestamp
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ marketdata.TradeSource = (*TradeSource)(nil)
