package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

func testScreener(id string) *domain.Screener {
	return &domain.Screener{
		ID:            id,
		Name:          "fresh launches",
		Filters:       `[{"field":"createdAt","op":"gt","value":1700000000}]`,
		SortField:     "volume",
		SortDirection: "desc",
		CreatedAt:     1700000100,
		UpdatedAt:     1700000100,
	}
}

func TestScreenerStore_CreateAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScreenerStore(pool)
	ctx := context.Background()

	sc := testScreener("sc-1")
	require.NoError(t, store.Create(ctx, sc))

	got, err := store.GetByID(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, sc.Name, got.Name)
	assert.Equal(t, sc.Filters, got.Filters)
	assert.Equal(t, sc.SortField, got.SortField)
	assert.Equal(t, sc.SortDirection, got.SortDirection)
}

func TestScreenerStore_CreateDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScreenerStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testScreener("sc-1")))
	err := store.Create(ctx, testScreener("sc-1"))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestScreenerStore_CreateInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScreenerStore(pool)

	assert.ErrorIs(t, store.Create(context.Background(), nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Create(context.Background(), &domain.Screener{}), storage.ErrInvalidInput)
}

func TestScreenerStore_UpdateAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScreenerStore(pool)
	ctx := context.Background()

	sc := testScreener("sc-1")
	require.NoError(t, store.Create(ctx, sc))

	sc.Name = "renamed"
	sc.SortDirection = "asc"
	sc.UpdatedAt = 1700000200
	require.NoError(t, store.Update(ctx, sc))

	got, err := store.GetByID(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, "asc", got.SortDirection)
	assert.Equal(t, int64(1700000200), got.UpdatedAt)

	require.NoError(t, store.Delete(ctx, "sc-1"))

	_, err = store.GetByID(ctx, "sc-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "sc-1"), storage.ErrNotFound)

	missing := testScreener("sc-missing")
	assert.ErrorIs(t, store.Update(ctx, missing), storage.ErrNotFound)
}

func TestScreenerStore_ListOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScreenerStore(pool)
	ctx := context.Background()

	first := testScreener("sc-1")
	first.UpdatedAt = 1700000100
	second := testScreener("sc-2")
	second.UpdatedAt = 1700000300
	require.NoError(t, store.Create(ctx, first))
	require.NoError(t, store.Create(ctx, second))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sc-2", list[0].ID)
	assert.Equal(t, "sc-1", list[1].ID)
}
