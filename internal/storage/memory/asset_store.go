package memory

import (
	"context"
	"sort"
	"sync"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Asset
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		data: make(map[string]*domain.Asset),
	}
}

var _ storage.AssetStore = (*AssetStore)(nil)

// Insert adds a new asset. Returns ErrDuplicateKey if the ID exists.
func (s *AssetStore) Insert(_ context.Context, a *domain.Asset) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[a.ID]; exists {
		return storage.ErrDuplicateKey
	}
	assetCopy := *a
	s.data[a.ID] = &assetCopy
	return nil
}

// GetByID retrieves an asset by ID. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(_ context.Context, assetID string) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[assetID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	assetCopy := *a
	return &assetCopy, nil
}

// List retrieves all assets ordered by ID.
func (s *AssetStore) List(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Asset, 0, len(s.data))
	for _, a := range s.data {
		assetCopy := *a
		result = append(result, &assetCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}
