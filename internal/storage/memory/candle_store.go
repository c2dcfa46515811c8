// Package memory holds in-memory store implementations used by tests
// and single-process runs. All stores copy on read and on write so
// callers can never alias internal state.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu   sync.RWMutex
	data map[string]domain.Candle // keyed by (asset_id, timestamp_ms)
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{
		data: make(map[string]domain.Candle),
	}
}

var _ storage.CandleStore = (*CandleStore)(nil)

// candleKey generates a unique key for a candle.
func candleKey(assetID string, ts time.Time) string {
	return fmt.Sprintf("%s|%d", assetID, ts.UnixMilli())
}

// InsertBulk adds multiple candles. Fails entire batch on duplicate.
func (s *CandleStore) InsertBulk(_ context.Context, assetID string, candles []domain.Candle) error {
	if assetID == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: detect existing and intra-batch duplicates.
	batchKeys := make(map[string]struct{}, len(candles))
	for _, c := range candles {
		key := candleKey(assetID, c.Timestamp)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, c := range candles {
		s.data[candleKey(assetID, c.Timestamp)] = c
	}
	return nil
}

// GetByAssetID retrieves all candles for an asset, ordered by timestamp ASC.
func (s *CandleStore) GetByAssetID(ctx context.Context, assetID string) ([]domain.Candle, error) {
	return s.GetByTimeRange(ctx, assetID, time.Time{}, time.Unix(1<<40, 0))
}

// GetByTimeRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(_ context.Context, assetID string, start, end time.Time) ([]domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := assetID + "|"
	var result []domain.Candle
	for key, c := range s.data {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// GetLatest retrieves the most recent count candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(ctx context.Context, assetID string, count int) ([]domain.Candle, error) {
	if count <= 0 {
		return nil, storage.ErrInvalidInput
	}

	all, err := s.GetByAssetID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if len(all) > count {
		all = all[len(all)-count:]
	}
	return all, nil
}
