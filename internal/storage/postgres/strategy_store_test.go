package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

func testStrategy(id string) *domain.StrategyRecord {
	return &domain.StrategyRecord{
		ID:           id,
		Name:         "dip buyer",
		TokenAddress: "0x1111111111111111111111111111111111111111",
		TokenName:    "TEST",
		CurveID:      "0x2222222222222222222222222222222222222222",
		Params:       domain.DefaultParams(domain.EntryPriceDip),
		CreatedAt:    1704067200,
		UpdatedAt:    1704067200,
	}
}

func TestStrategyStore_CreateAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStrategyStore(pool)
	ctx := context.Background()

	rec := testStrategy("s1")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.CurveID, got.CurveID)
	assert.Equal(t, rec.Params, got.Params)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
}

func TestStrategyStore_CreateDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStrategyStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testStrategy("s1")))

	err := store.Create(ctx, testStrategy("s1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestStrategyStore_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStrategyStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStrategyStore_UpdateAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStrategyStore(pool)
	ctx := context.Background()

	rec := testStrategy("s1")
	require.NoError(t, store.Create(ctx, rec))

	rec.Name = "momentum rider"
	rec.Params = domain.DefaultParams(domain.EntryMomentum)
	rec.UpdatedAt = 1704070800
	require.NoError(t, store.Update(ctx, rec))

	got, err := store.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "momentum rider", got.Name)
	assert.Equal(t, domain.EntryMomentum, got.Params.EntryType)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.GetByID(ctx, "s1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Update(ctx, rec), storage.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "s1"), storage.ErrNotFound)
}

func TestStrategyStore_ListOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewStrategyStore(pool)
	ctx := context.Background()

	old := testStrategy("old")
	old.UpdatedAt = 100
	recent := testStrategy("recent")
	recent.UpdatedAt = 300
	mid := testStrategy("mid")
	mid.UpdatedAt = 200

	for _, rec := range []*domain.StrategyRecord{old, recent, mid} {
		require.NoError(t, store.Create(ctx, rec))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "recent", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, "old", list[2].ID)
}
