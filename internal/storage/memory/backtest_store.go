package memory

import (
	"context"
	"sort"
	"sync"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// BacktestStore is an in-memory implementation of storage.BacktestStore.
type BacktestStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestResult
}

// NewBacktestStore creates a new in-memory backtest store.
func NewBacktestStore() *BacktestStore {
	return &BacktestStore{
		data: make(map[string]*domain.BacktestResult),
	}
}

var _ storage.BacktestStore = (*BacktestStore)(nil)

// Insert adds a completed run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestStore) Insert(_ context.Context, r *domain.BacktestResult) error {
	if r == nil || r.RunID == "" || r.AssetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.RunID] = copyResult(r)
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *BacktestStore) GetByID(_ context.Context, runID string) (*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyResult(r), nil
}

// GetByAssetID retrieves all runs for an asset, ordered by period start ASC.
func (s *BacktestStore) GetByAssetID(_ context.Context, assetID string) ([]*domain.BacktestResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestResult
	for _, r := range s.data {
		if r.AssetID == assetID {
			result = append(result, copyResult(r))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PeriodStart.Before(result[j].PeriodStart)
	})
	return result, nil
}

// copyResult deep-copies a run including its trade ledger.
func copyResult(r *domain.BacktestResult) *domain.BacktestResult {
	resultCopy := *r
	if r.Trades != nil {
		resultCopy.Trades = make([]domain.BacktestTrade, len(r.Trades))
		copy(resultCopy.Trades, r.Trades)
	}
	return &resultCopy
}
