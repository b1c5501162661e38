// Package storage defines the persistence interfaces consumed by the
// rest of the system. Implementations live in the postgres, clickhouse
// and memory subpackages.
package storage

import (
	"context"

	"curve-strategy-lab/internal/domain"
)

// StrategyStore provides CRUD access to persisted strategies.
type StrategyStore interface {
	// Create adds a new strategy. Returns ErrDuplicateKey if the ID exists.
	Create(ctx context.Context, s *domain.StrategyRecord) error

	// GetByID retrieves a strategy. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.StrategyRecord, error)

	// List returns all strategies ordered by updated_at DESC.
	List(ctx context.Context) ([]*domain.StrategyRecord, error)

	// Update replaces name, curve binding and params of an existing
	// strategy. Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.StrategyRecord) error

	// Delete removes a strategy and its backtest runs.
	// Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// ScreenerStore provides CRUD access to persisted screeners.
type ScreenerStore interface {
	// Create adds a new screener. Returns ErrDuplicateKey if the ID exists.
	Create(ctx context.Context, s *domain.Screener) error

	// GetByID retrieves a screener. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Screener, error)

	// List returns all screeners ordered by updated_at DESC.
	List(ctx context.Context) ([]*domain.Screener, error)

	// Update replaces the mutable fields of an existing screener.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.Screener) error

	// Delete removes a screener. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// BacktestRunStore provides append-only access to persisted backtest runs.
type BacktestRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.BacktestRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error)

	// LatestByStrategy returns the most recent run for a strategy.
	// Returns ErrNotFound when the strategy has no runs.
	LatestByStrategy(ctx context.Context, strategyID string) (*domain.BacktestRun, error)
}

// PriceHistoryStore archives normalized price series per curve.
type PriceHistoryStore interface {
	// InsertBulk appends points for a curve. Points already present
	// (same curve_id, timestamp) are rejected with ErrDuplicateKey.
	InsertBulk(ctx context.Context, curveID string, points []domain.PricePoint) error

	// GetByCurveID retrieves all archived points for a curve, ordered
	// by timestamp ASC.
	GetByCurveID(ctx context.Context, curveID string) ([]domain.PricePoint, error)

	// GetByTimeRange retrieves points within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, curveID string, start, end int64) ([]domain.PricePoint, error)
}
