package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
// Strategy parameters are stored as a JSONB document.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Create adds a new strategy. Returns ErrDuplicateKey if the ID exists.
func (s *StrategyStore) Create(ctx context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		INSERT INTO strategies (
			id, name, token_address, token_name, curve_id, params, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.Name,
		rec.TokenAddress,
		rec.TokenName,
		rec.CurveID,
		params,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByID retrieves a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, id string) (*domain.StrategyRecord, error) {
	query := `
		SELECT id, name, token_address, token_name, curve_id, params, created_at, updated_at
		FROM strategies
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	rec, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}
	return rec, nil
}

// List returns all strategies ordered by updated_at DESC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.StrategyRecord, error) {
	query := `
		SELECT id, name, token_address, token_name, curve_id, params, created_at, updated_at
		FROM strategies
		ORDER BY updated_at DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var result []*domain.StrategyRecord
	for rows.Next() {
		rec, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Update replaces the mutable fields of an existing strategy.
func (s *StrategyStore) Update(ctx context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	query := `
		UPDATE strategies
		SET name = $2, token_address = $3, token_name = $4, curve_id = $5,
		    params = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Name,
		rec.TokenAddress,
		rec.TokenName,
		rec.CurveID,
		params,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes a strategy; backtest runs cascade via FK.
func (s *StrategyStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanStrategy scans a single strategy row.
func scanStrategy(row pgx.Row) (*domain.StrategyRecord, error) {
	var rec domain.StrategyRecord
	var params []byte

	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.TokenAddress,
		&rec.TokenName,
		&rec.CurveID,
		&params,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(params, &rec.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return &rec, nil
}
