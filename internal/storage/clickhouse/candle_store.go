package clickhouse

import (
	"context"
	"fmt"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// CandleStore implements storage.CandleStore over ClickHouse. The
// backing table is a ReplacingMergeTree keyed by (asset_id, ts), so
// duplicate inserts collapse on merge instead of failing the batch.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// InsertBulk adds multiple candles via a prepared batch.
func (s *CandleStore) InsertBulk(ctx context.Context, assetID string, candles []domain.Candle) error {
	if assetID == "" {
		return storage.ErrInvalidInput
	}
	if len(candles) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx,
		"INSERT INTO candles (asset_id, ts, open, high, low, close, volume)")
	if err != nil {
		return fmt.Errorf("prepare candle batch: %w", err)
	}

	for _, c := range candles {
		if err := batch.Append(assetID, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("append candle to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send candle batch: %w", err)
	}
	return nil
}

// GetByAssetID retrieves all candles for an asset, ordered by timestamp ASC.
func (s *CandleStore) GetByAssetID(ctx context.Context, assetID string) ([]domain.Candle, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM candles FINAL
		WHERE asset_id = ?
		ORDER BY ts ASC
	`
	return s.queryCandles(ctx, query, assetID)
}

// GetByTimeRange retrieves candles within [start, end], ordered by timestamp ASC.
func (s *CandleStore) GetByTimeRange(ctx context.Context, assetID string, start, end time.Time) ([]domain.Candle, error) {
	query := `
		SELECT ts, open, high, low, close, volume
		FROM candles FINAL
		WHERE asset_id = ? AND ts >= ? AND ts <= ?
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
			FROM candles FINAL
			WHERE asset_id = ?
			ORDER BY ts DESC
			LIMIT ?
		)
		ORDER BY ts ASC
	`
	return s.queryCandles(ctx, query, assetID, count)
}

func (s *CandleStore) queryCandles(ctx context.Context, query string, args ...any) ([]domain.Candle, error) {
	rows, err := s.conn.Query(ctx, query, args...)
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
