package postgres

import (
	"context"
	"fmt"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(ctx context.Context, sig *domain.TradeSignal) error {
	if sig == nil || sig.SignalID == "" || sig.AssetID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO signals (
			signal_id, asset_id, kind, entry, stop_loss, take_profit,
			confidence, session, reasons, ts
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		sig.SignalID, sig.AssetID, string(sig.Kind),
		sig.Entry, sig.StopLoss, sig.TakeProfit,
		string(sig.Confidence), sig.Session, sig.Reasons, sig.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// GetByID retrieves a signal by ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(ctx context.Context, signalID string) (*domain.TradeSignal, error) {
	query := `
		SELECT signal_id, asset_id, kind, entry, stop_loss, take_profit,
		       confidence, session, reasons, ts
		FROM signals
		WHERE signal_id = $1
	`

	var sig domain.TradeSignal
	var kind, confidence string
	err := s.pool.QueryRow(ctx, query, signalID).Scan(
		&sig.SignalID, &sig.AssetID, &kind,
		&sig.Entry, &sig.StopLoss, &sig.TakeProfit,
		&confidence, &sig.Session, &sig.Reasons, &sig.Timestamp,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal by id: %w", err)
	}
	sig.Kind = domain.SignalKind(kind)
	sig.Confidence = domain.Confidence(confidence)
	sig.Timestamp = sig.Timestamp.UTC()
	return &sig, nil
}

// GetByAssetID retrieves all signals for an asset, ordered by timestamp ASC.
func (s *SignalStore) GetByAssetID(ctx context.Context, assetID string) ([]*domain.TradeSignal, error) {
	query := `
		SELECT signal_id, asset_id, kind, entry, stop_loss, take_profit,
		       confidence, session, reasons, ts
		FROM signals
		WHERE asset_id = $1
		ORDER BY ts ASC
	`

	rows, err := s.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var result []*domain.TradeSignal
	for rows.Next() {
		var sig domain.TradeSignal
		var kind, confidence string
		if err := rows.Scan(
			&sig.SignalID, &sig.AssetID, &kind,
			&sig.Entry, &sig.StopLoss, &sig.TakeProfit,
			&confidence, &sig.Session, &sig.Reasons, &sig.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Kind = domain.SignalKind(kind)
		sig.Confidence = domain.Confidence(confidence)
		sig.Timestamp = sig.Timestamp.UTC()
		result = append(result, &sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return result, nil
}
