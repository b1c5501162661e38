package memory

import (
	"context"
	"errors"
	"testing"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

func TestPriceHistoryStore_InsertAndGet(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	points := []domain.PricePoint{
		{Timestamp: 100, Price: 1.0},
		{Timestamp: 200, Price: 1.1},
		{Timestamp: 300, Price: 1.2},
	}
	if err := store.InsertBulk(ctx, "curve-1", points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByCurveID(ctx, "curve-1")
	if err != nil {
		t.Fatalf("GetByCurveID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp < got[i-1].Timestamp {
			t.Fatal("points not sorted by timestamp")
		}
	}
}

func TestPriceHistoryStore_RejectsDuplicateTimestamps(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "curve-1", []domain.PricePoint{
		{Timestamp: 100, Price: 1.0},
		{Timestamp: 200, Price: 1.1},
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// An overlapping window fails the whole batch and leaves the
	// stored series untouched.
	err := store.InsertBulk(ctx, "curve-1", []domain.PricePoint{
		{Timestamp: 200, Price: 1.1},
		{Timestamp: 300, Price: 1.2},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("overlapping InsertBulk error = %v, want ErrDuplicateKey", err)
	}

	// Intra-batch duplicates are rejected too.
	err = store.InsertBulk(ctx, "curve-2", []domain.PricePoint{
		{Timestamp: 500, Price: 1.0},
		{Timestamp: 500, Price: 1.1},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("intra-batch duplicate error = %v, want ErrDuplicateKey", err)
	}

	got, err := store.GetByCurveID(ctx, "curve-1")
	if err != nil {
		t.Fatalf("GetByCurveID failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d points, want 2 after rejected batch", len(got))
	}
}

func TestPriceHistoryStore_GetByTimeRange(t *testing.T) {
	store := NewPriceHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, "curve-1", []domain.PricePoint{
		{Timestamp: 100, Price: 1.0},
		{Timestamp: 200, Price: 1.1},
		{Timestamp: 300, Price: 1.2},
		{Timestamp: 400, Price: 1.3},
	}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, "curve-1", 200, 300)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d points, want 2 in [200,300]", len(got))
	}
	if got[0].Timestamp != 200 || got[1].Timestamp != 300 {
		t.Errorf("range = %d..%d, want 200..300", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestPriceHistoryStore_UnknownCurve(t *testing.T) {
	store := NewPriceHistoryStore()

	got, err := store.GetByCurveID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByCurveID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d points for unknown curve, want 0", len(got))
	}
}
