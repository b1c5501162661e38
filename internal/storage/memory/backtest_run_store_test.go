package memory

import (
	"context"
	"errors"
	"testing"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

func testRun(runID, strategyID string, executedAt int64) *domain.BacktestRun {
	return &domain.BacktestRun{
		RunID:      runID,
		StrategyID: strategyID,
		CurveID:    "curve-1",
		Params:     domain.DefaultParams(domain.EntryPriceDip),
		ExecutedAt: executedAt,
	}
}

func TestBacktestRunStore_InsertAndGet(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("r1", "s1", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StrategyID != "s1" || got.CurveID != "curve-1" {
		t.Errorf("stored run = %s/%s, want s1/curve-1", got.StrategyID, got.CurveID)
	}
}

func TestBacktestRunStore_DuplicateKey(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, testRun("r1", "s1", 100)); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	if err := store.Insert(ctx, testRun("r1", "s1", 200)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("second Insert error = %v, want ErrDuplicateKey", err)
	}
}

func TestBacktestRunStore_LatestByStrategy(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	for _, r := range []*domain.BacktestRun{
		testRun("r1", "s1", 100),
		testRun("r2", "s1", 300),
		testRun("r3", "s1", 200),
		testRun("r4", "s2", 999),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert %s failed: %v", r.RunID, err)
		}
	}

	got, err := store.LatestByStrategy(ctx, "s1")
	if err != nil {
		t.Fatalf("LatestByStrategy failed: %v", err)
	}
	if got.RunID != "r2" {
		t.Errorf("latest run = %s, want r2", got.RunID)
	}

	if _, err := store.LatestByStrategy(ctx, "unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LatestByStrategy error = %v, want ErrNotFound", err)
	}
}

func TestBacktestRunStore_InvalidInput(t *testing.T) {
	store := NewBacktestRunStore()

	if err := store.Insert(context.Background(), &domain.BacktestRun{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Insert without run ID error = %v, want ErrInvalidInput", err)
	}
}
