// Package normalization converts raw curve trades into ordered,
// de-duplicated, strictly-positive price series usable by both the
// simulation engine and display layers.
package normalization

import (
	"math"
	"sort"

	"curve-strategy-lab/internal/domain"
)

// PricePoints transforms raw trades into a normalized price series.
//
// Rules:
//   - non-positive or non-finite prices are dropped
//   - points are sorted ascending by timestamp
//   - multiple trades on the same timestamp collapse to one point,
//     keeping the last price in source order (LAST(price))
func PricePoints(trades []domain.CurveTrade) []domain.PricePoint {
	if len(trades) == 0 {
		return nil
	}

	points := make([]domain.PricePoint, 0, len(trades))
	for _, t := range trades {
		if t.PriceEth <= 0 || math.IsInf(t.PriceEth, 0) || math.IsNaN(t.PriceEth) {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: t.Timestamp,
			Price:     t.PriceEth,
		})
	}

	if len(points) == 0 {
		return nil
	}

	// Stable sort preserves source order within a timestamp so the
	// last trade of a timestamp wins the collapse below.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})

	deduped := points[:0]
	for _, p := range points {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp == p.Timestamp {
			deduped[n-1].Price = p.Price
			continue
		}
		deduped = append(deduped, p)
	}

	return deduped
}
