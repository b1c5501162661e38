package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

func TestPriceHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertBulk(ctx, "0xcurve", nil)
	assert.NoError(t, err)

	points := []domain.PricePoint{
		{Timestamp: 1000, Price: 0.0000015},
		{Timestamp: 1001, Price: 0.0000017},
		{Timestamp: 1002, Price: 0.0000016},
	}
	err = store.InsertBulk(ctx, "0xcurve", points)
	require.NoError(t, err)

	got, err := store.GetByCurveID(ctx, "0xcurve")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, 0.0000015, got[0].Price)
	assert.Equal(t, int64(1002), got[2].Timestamp)
}

func TestPriceHistoryStore_InsertBulk_EmptyCurveID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)

	err := store.InsertBulk(context.Background(), "", []domain.PricePoint{{Timestamp: 1, Price: 1}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPriceHistoryStore_InsertBulk_DuplicateTimestamp(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, "0xcurve", []domain.PricePoint{{Timestamp: 1000, Price: 1.0}})
	require.NoError(t, err)

	// Re-inserting an archived timestamp fails the whole batch.
	err = store.InsertBulk(ctx, "0xcurve", []domain.PricePoint{
		{Timestamp: 1000, Price: 2.0},
		{Timestamp: 1001, Price: 3.0},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByCurveID(ctx, "0xcurve")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Price)

	// An intra-batch duplicate fails before anything is written.
	err = store.InsertBulk(ctx, "0xcurve", []domain.PricePoint{
		{Timestamp: 2000, Price: 1.0},
		{Timestamp: 2000, Price: 2.0},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same timestamp on another curve is fine.
	err = store.InsertBulk(ctx, "0xother", []domain.PricePoint{{Timestamp: 1000, Price: 9.0}})
	assert.NoError(t, err)
}

func TestPriceHistoryStore_GetByCurveID_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)

	got, err := store.GetByCurveID(context.Background(), "0xunknown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceHistoryStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPriceHistoryStore(conn)
	ctx := context.Background()

	points := []domain.PricePoint{
		{Timestamp: 1000, Price: 1.0},
		{Timestamp: 2000, Price: 2.0},
		{Timestamp: 3000, Price: 3.0},
		{Timestamp: 4000, Price: 4.0},
	}
	require.NoError(t, store.InsertBulk(ctx, "0xcurve", points))

	// Bounds are inclusive.
	got, err := store.GetByTimeRange(ctx, "0xcurve", 2000, 3000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2000), got[0].Timestamp)
	assert.Equal(t, int64(3000), got[1].Timestamp)

	got, err = store.GetByTimeRange(ctx, "0xcurve", 5000, 6000)
	require.NoError(t, err)
	assert.Empty(t, got)
}
