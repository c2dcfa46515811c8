package postgres

import (
	"context"
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// AssetStore implements storage.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

// Insert adds a new asset. Returns ErrDuplicateKey if the ID exists.
func (s *AssetStore) Insert(ctx context.Context, a *domain.Asset) error {
	query := `
		INSERT INTO assets (asset_id, symbol, exchange, bar_interval)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, a.ID, a.Symbol, a.Exchange, a.IntervalLabel())
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset by ID. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	query := `
		SELECT asset_id, symbol, exchange, bar_interval
		FROM assets
		WHERE asset_id = $1
	`

	var a domain.Asset
	var interval string
	err := s.pool.QueryRow(ctx, query, assetID).Scan(&a.ID, &a.Symbol, &a.Exchange, &interval)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset by id: %w", err)
	}
	if a.BarInterval, err = domain.ParseInterval(interval); err != nil {
		return nil, fmt.Errorf("parse asset interval: %w", err)
	}
	return &a, nil
}

// List retrieves all assets ordered by ID.
func (s *AssetStore) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT asset_id, symbol, exchange, bar_interval
		FROM assets
		ORDER BY asset_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var result []*domain.Asset
	for rows.Next() {
		var a domain.Asset
		var interval string
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Exchange, &interval); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		if a.BarInterval, err = domain.ParseInterval(interval); err != nil {
			return nil, fmt.Errorf("parse asset interval: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return result, nil
}
