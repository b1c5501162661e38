package memory

import (
	"context"
	"sort"
	"sync"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]float64 // curve_id -> timestamp -> price
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{data: make(map[string]map[int64]float64)}
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk appends points for a curve. Fails the entire batch on any
// duplicate (existing or intra-batch).
func (s *PriceHistoryStore) InsertBulk(_ context.Context, curveID string, points []domain.PricePoint) error {
	if curveID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[curveID]
	batch := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, dup := existing[p.Timestamp]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := batch[p.Timestamp]; dup {
			return storage.ErrDuplicateKey
		}
		batch[p.Timestamp] = struct{}{}
	}

	if existing == nil {
		existing = make(map[int64]float64, len(points))
		s.data[curveID] = existing
	}
	for _, p := range points {
		existing[p.Timestamp] = p.Price
	}
	return nil
}

// GetByCurveID retrieves all archived points, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetByCurveID(ctx context.Context, curveID string) ([]domain.PricePoint, error) {
	return s.GetByTimeRange(ctx, curveID, 0, 1<<62)
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(_ context.Context, curveID string, start, end int64) ([]domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.PricePoint
	for ts, price := range s.data[curveID] {
		if ts >= start && ts <= end {
			result = append(result, domain.PricePoint{Timestamp: ts, Price: price})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}
