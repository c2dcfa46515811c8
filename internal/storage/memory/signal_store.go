package memory

import (
	"context"
	"sort"
	"sync"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeSignal
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.TradeSignal),
	}
}

var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(_ context.Context, sig *domain.TradeSignal) error {
	if sig == nil || sig.SignalID == "" || sig.AssetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sig.SignalID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[sig.SignalID] = copySignal(sig)
	return nil
}

// GetByID retrieves a signal by ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, signalID string) (*domain.TradeSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, exists := s.data[signalID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySignal(sig), nil
}

// GetByAssetID retrieves all signals for an asset, ordered by timestamp ASC.
func (s *SignalStore) GetByAssetID(_ context.Context, assetID string) ([]*domain.TradeSignal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeSignal
	for _, sig := range s.data {
		if sig.AssetID == assetID {
			result = append(result, copySignal(sig))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// copySignal deep-copies a signal including its justification trail.
func copySignal(sig *domain.TradeSignal) *domain.TradeSignal {
	sigCopy := *sig
	if sig.Reasons != nil {
		sigCopy.Reasons = make([]string, len(sig.Reasons))
		copy(sigCopy.Reasons, sig.Reasons)
	}
	return &sigCopy
}
