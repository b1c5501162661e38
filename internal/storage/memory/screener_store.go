package memory

import (
	"context"
	"sort"
	"sync"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/storage"
)

// ScreenerStore is an in-memory implementation of storage.ScreenerStore.
type ScreenerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Screener
}

// NewScreenerStore creates a new in-memory screener store.
func NewScreenerStore() *ScreenerStore {
	return &ScreenerStore{data: make(map[string]*domain.Screener)}
}

var _ storage.ScreenerStore = (*ScreenerStore)(nil)

// Create adds a new screener. Returns ErrDuplicateKey if the ID exists.
func (s *ScreenerStore) Create(_ context.Context, sc *domain.Screener) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sc.ID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *sc
	s.data[sc.ID] = &cp
	return nil
}

// GetByID retrieves a screener. Returns ErrNotFound if not exists.
func (s *ScreenerStore) GetByID(_ context.Context, id string) (*domain.Screener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cp := *sc
	return &cp, nil
}

// List returns all screeners ordered by updated_at DESC.
func (s *ScreenerStore) List(_ context.Context) ([]*domain.Screener, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Screener, 0, len(s.data))
	for _, sc := range s.data {
		cp := *sc
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

// Update replaces an existing screener. Returns ErrNotFound if not exists.
func (s *ScreenerStore) Update(_ context.Context, sc *domain.Screener) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sc.ID]; !exists {
		return storage.ErrNotFound
	}

	cp := *sc
	s.data[sc.ID] = &cp
	return nil
}

// Delete removes a screener. Returns ErrNotFound if not exists.
func (s *ScreenerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}

	delete(s.data, id)
	return nil
}
