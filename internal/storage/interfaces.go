// Package storage defines the persistence interfaces and their shared
// error vocabulary. Backends live in subpackages.
package storage

import (
	"context"
	"time"

	"market-structure-lab/internal/domain"
)

// AssetStore provides access to tracked assets.
type AssetStore interface {
	// Insert adds a new asset. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, a *domain.Asset) error

	// GetByID retrieves an asset by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, assetID string) (*domain.Asset, error)

	// List retrieves all assets ordered by ID.
	List(ctx context.Context) ([]*domain.Asset, error)
}

// CandleStore provides access to candle history.
type CandleStore interface {
	// InsertBulk adds multiple candles for an asset. Fails the entire
	// batch on any duplicate (asset_id, timestamp).
	InsertBulk(ctx context.Context, assetID string, candles []domain.Candle) error

	// GetByAssetID retrieves all candles for an asset, ordered by timestamp ASC.
	GetByAssetID(ctx context.Context, assetID string) ([]domain.Candle, error)

	// GetByTimeRange retrieves candles within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, assetID string, start, end time.Time) ([]domain.Candle, error)

	// GetLatest retrieves the most recent count candles, ordered by timestamp ASC.
	GetLatest(ctx context.Context, assetID string, count int) ([]domain.Candle, error)
}

// SignalStore provides access to emitted trade signals.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
	Insert(ctx context.Context, s *domain.TradeSignal) error

	// GetByID retrieves a signal by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, signalID string) (*domain.TradeSignal, error)

	// GetByAssetID retrieves all signals for an asset, ordered by timestamp ASC.
	GetByAssetID(ctx context.Context, assetID string) ([]*domain.TradeSignal, error)
}

// BacktestStore provides access to completed backtest runs.
type BacktestStore interface {
	// Insert adds a completed run with its trades. Returns ErrDuplicateKey
	// if run_id exists.
	Insert(ctx context.Context, r *domain.BacktestResult) error

	// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestResult, error)

	// GetByAssetID retrieves all runs for an asset, ordered by period start ASC.
	GetByAssetID(ctx context.Context, assetID string) ([]*domain.BacktestResult, error)
}
