// Package memory provides in-memory storage implementations for tests
// and single-process runs without external databases.
package memory

import (
	"context"
	"sort"
	"sync"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyRecord
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{data: make(map[string]*domain.StrategyRecord)}
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

// Create adds a new strategy. Returns ErrDuplicateKey if the ID exists.
func (s *StrategyStore) Create(_ context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *rec
	s.data[rec.ID] = &cp
	return nil
}

// GetByID retrieves a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, id string) (*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *rec
	return &cp, nil
}

// List returns all strategies ordered by updated_at DESC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.StrategyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyRecord, 0, len(s.data))
	for _, rec := range s.data {
		cp := *rec
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt != result[j].UpdatedAt {
			return result[i].UpdatedAt > result[j].UpdatedAt
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Update replaces an existing strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Update(_ context.Context, rec *domain.StrategyRecord) error {
	if rec == nil || rec.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.ID]; !exists {
		return storage.ErrNotFound
	}

	cp := *rec
	s.data[rec.ID] = &cp
	return nil
}

// Delete removes a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	return nil
}
