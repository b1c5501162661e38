package clickhouse

import (
	"context"
	"fmt"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/observability"
	"curve-strategy-lab/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk appends points for a curve. Fails the entire batch on any
// duplicate (curve_id, timestamp), existing or intra-batch.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, curveID string, points []domain.PricePoint) error {
	if curveID == "" {
		return storage.ErrInvalidInput
	}
	if len(points) == 0 {
		return nil
	}

	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		if _, exists := seen[p.Timestamp]; exists {
			return storage.ErrDuplicateKey
		}
		seen[p.Timestamp] = struct{}{}
	}

	for _, p := range points {
		exists, err := s.exists(ctx, curveID, p.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_history (curve_id, timestamp, price)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(curveID, uint64(p.Timestamp), p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_batch", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByCurveID retrieves all archived points, ordered by timestamp ASC.
func (s *PriceHistoryStore) GetByCurveID(ctx context.Context, curveID string) ([]domain.PricePoint, error) {
	query := `
		SELECT timestamp, price
		FROM price_history
		WHERE curve_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, curveID)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(ctx context.Context, curveID string, start, end int64) ([]domain.PricePoint, error) {
	query := `
		SELECT timestamp, price
		FROM price_history
		WHERE curve_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, curveID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query price history range: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows)
}

// exists checks whether a point is already archived.
func (s *PriceHistoryStore) exists(ctx context.Context, curveID string, timestamp int64) (bool, error) {
	query := `
		SELECT count() FROM price_history
		WHERE curve_id = ? AND timestamp = ?
	`

	var count uint64
	row := s.conn.QueryRow(ctx, query, curveID, uint64(timestamp))
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// rowScanner is the subset of driver rows used by scanPoints.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanPoints scans (timestamp, price) rows into price points.
func scanPoints(rows rowScanner) ([]domain.PricePoint, error) {
	var result []domain.PricePoint
	for rows.Next() {
		var ts uint64
		var price float64
		if err := rows.Scan(&ts, &price); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		result = append(result, domain.PricePoint{Timestamp: int64(ts), Price: price})
	}
	return result, rows.Err()
}
