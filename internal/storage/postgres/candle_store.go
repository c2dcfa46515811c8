package postgres

import (
	"context"
	"fmt"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// CandleStore implements storage.CandleStore using PostgreSQL.
type CandleStore struct {
	pool *Pool
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(pool *Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles atomically. Fails entire batch on any duplicate.
func (s *CandleStore) InsertBulk(ctx context.Context, assetID string, candles []domain.Candle) error {
	if assetID == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO candles (asset_id, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, c := range candles {
		_, err := tx.Exec(ctx, query,
			assetID, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert candle in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByAssetID retrieves all candles for an asset, ordered by timestamp ASC.
func (s *CandleStore) GetByAssetID(ctx context.Context, assetID string) ([]domain.Candle, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE asset_id = $1
		ORDER BY ts ASC
	`
	return s.queryCandles(ctx, query, assetID)
}

// GetByTimeRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(ctx context.Context, assetID string, start, end time.Time) ([]domain.Candle, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE asset_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC
	`
	return s.queryCandles(ctx, query, assetID, start, end)
}

// GetLatest retrieves the most recent count candles, ordered by timestamp ASC.
func (s *CandleStore) GetLatest(ctx context.Context, assetID string, count int) ([]domain.Candle, error) {
	if count <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ts, open, high, low, close, volume
		FROM (
			SELECT ts, open, high, low, close, volume
			FROM candles
			WHERE asset_id = $1
			ORDER BY ts DESC
			LIMIT $2
		) latest
		ORDER BY ts ASC
	`
	return s.queryCandles(ctx, query, assetID, count)
}

func (s *CandleStore) queryCandles(ctx context.Context, query string, args ...any) ([]domain.Candle, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var result []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candles: %w", err)
	}
	return result, nil
}
