package backtest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/idhash"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/normalization"
	"curve-strategy-lab/internal/storage"
)

// fetchLimit is the number of historical trades requested per run.
const fetchLimit = 1000

// Runner wires the full backtest path: fetch trades, normalize,
// simulate, optionally archive the price series and persist the run.
type Runner struct {
	source  marketdata.TradeSource
	archive storage.PriceHistoryStore // optional
	runs    storage.BacktestRunStore  // optional
	logger  *log.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithArchive enables best-effort archiving of normalized price series.
func WithArchive(archive storage.PriceHistoryStore) RunnerOption {
	return func(r *Runner) {
		r.archive = archive
	}
}

// WithRunStore enables persistence of completed runs.
func WithRunStore(runs storage.BacktestRunStore) RunnerOption {
	return func(r *Runner) {
		r.runs = runs
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new backtest runner.
func NewRunner(source marketdata.TradeSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		source: source,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunBacktest fetches historical trades for a curve (oldest first),
// normalizes them and runs the simulation. Insufficient history is not
// an error: the result simply carries zero trades.
func (r *Runner) RunBacktest(ctx context.Context, curveID string, params domain.StrategyParams) (*domain.BacktestResult, error) {
	trades, err := r.source.FetchTrades(ctx, curveID, fetchLimit, marketdata.OrderAsc)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}

	points := normalization.PricePoints(trades)
	result := Run(points, params)

	if r.archive != nil && len(points) > 0 {
		// Best effort: an archive failure (including duplicates from a
		// previous run over the same window) never fails the backtest.
		if err := r.archive.InsertBulk(ctx, curveID, points); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			r.logger.Printf("archive price history for %s: %v", curveID, err)
		}
	}

	return result, nil
}

// RunAndPersist runs a backtest for a stored strategy and records the
// run. The run ID is deterministic over the curve, params and series
// window, so re-running over unchanged history is a no-op duplicate.
func (r *Runner) RunAndPersist(ctx context.Context, strategyID, curveID string, params domain.StrategyParams) (*domain.BacktestRun, error) {
	result, err := r.RunBacktest(ctx, curveID, params)
	if err != nil {
		return nil, err
	}

	var firstTs, lastTs int64
	if n := len(result.PriceHistory); n > 0 {
		firstTs = result.PriceHistory[0].Timestamp
		lastTs = result.PriceHistory[n-1].Timestamp
	}

	run := &domain.BacktestRun{
		RunID:      idhash.ComputeRunID(curveID, params, firstTs, lastTs),
		StrategyID: strategyID,
		CurveID:    curveID,
		Params:     params,
		Result:     *result,
		ExecutedAt: time.Now().Unix(),
	}

	if r.runs != nil {
		if err := r.runs.Insert(ctx, run); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("persist run: %w", err)
		}
	}

	return run, nil
}
