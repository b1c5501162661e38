package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
// Params and the full result (ledger, equity curve, price history) are
// stored as JSONB documents.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(ctx context.Context, r *domain.BacktestRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(r.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	result, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (
			run_id, strategy_id, curve_id, params, result, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.StrategyID,
		r.CurveID,
		params,
		result,
		r.ExecutedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: unknown strategy %s", storage.ErrInvalidInput, r.StrategyID)
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	query := `
		SELECT run_id, strategy_id, curve_id, params, result, executed_at
		FROM backtest_runs
		WHERE run_id = $1
	`

	row := s.pool.QueryRow(ctx, query, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return r, nil
}

// LatestByStrategy returns the most recent run for a strategy.
func (s *BacktestRunStore) LatestByStrategy(ctx context.Context, strategyID string) (*domain.BacktestRun, error) {
	query := `
		SELECT run_id, strategy_id, curve_id, params, result, executed_at
		FROM backtest_runs
		WHERE strategy_id = $1
		ORDER BY executed_at DESC, run_id ASC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, strategyID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run for strategy: %w", err)
	}
	return r, nil
}

// scanRun scans a single backtest run row.
func scanRun(row pgx.Row) (*domain.BacktestRun, error) {
	var r domain.BacktestRun
	var params, result []byte

	err := row.Scan(
		&r.RunID,
		&r.StrategyID,
		&r.CurveID,
		&params,
		&result,
		&r.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(params, &r.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := json.Unmarshal(result, &r.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &r, nil
}
