package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// ScreenerStore implements storage.ScreenerStore using PostgreSQL.
type ScreenerStore struct {
	pool *Pool
}

// NewScreenerStore creates a new ScreenerStore.
func NewScreenerStore(pool *Pool) *ScreenerStore {
	return &ScreenerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScreenerStore = (*ScreenerStore)(nil)

// Create adds a new screener. Returns ErrDuplicateKey if the ID exists.
func (s *ScreenerStore) Create(ctx context.Context, sc *domain.Screener) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO screeners (
			id, name, filters, sort_field, sort_direction, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		sc.ID,
		sc.Name,
		sc.Filters,
		sc.SortField,
		sc.SortDirection,
		sc.CreatedAt,
		sc.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert screener: %w", err)
	}
	return nil
}

// GetByID retrieves a screener. Returns ErrNotFound if not exists.
func (s *ScreenerStore) GetByID(ctx context.Context, id string) (*domain.Screener, error) {
	query := `
		SELECT id, name, filters, sort_field, sort_direction, created_at, updated_at
		FROM screeners
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	sc, err := scanScreener(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get screener by id: %w", err)
	}
	return sc, nil
}

// List returns all screeners ordered by updated_at DESC.
func (s *ScreenerStore) List(ctx context.Context) ([]*domain.Screener, error) {
	query := `
		SELECT id, name, filters, sort_field, sort_direction, created_at, updated_at
		FROM screeners
		ORDER BY updated_at DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list screeners: %w", err)
	}
	defer rows.Close()

	var result []*domain.Screener
	for rows.Next() {
		sc, err := scanScreener(rows)
		if err != nil {
			return nil, fmt.Errorf("scan screener: %w", err)
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// Update replaces the mutable fields of an existing screener.
func (s *ScreenerStore) Update(ctx context.Context, sc *domain.Screener) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE screeners
		SET name = $2, filters = $3, sort_field = $4, sort_direction = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		sc.ID,
		sc.Name,
		sc.Filters,
		sc.SortField,
		sc.SortDirection,
		sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update screener: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a screener. Returns ErrNotFound if not exists.
func (s *ScreenerStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM screeners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete screener: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanScreener scans a single screener row.
func scanScreener(row pgx.Row) (*domain.Screener, error) {
	var sc domain.Screener
	err := row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.Filters,
		&sc.SortField,
		&sc.SortDirection,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sc, nil
}
