package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
)

// BacktestStore implements storage.BacktestStore using PostgreSQL.
// Currency amounts travel as strings so NUMERIC columns round-trip
// without float precision loss.
type BacktestStore struct {
	pool *Pool
}

// NewBacktestStore creates a new BacktestStore.
func NewBacktestStore(pool *Pool) *BacktestStore {
	return &BacktestStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestStore = (*BacktestStore)(nil)

// Insert adds a completed run with its trades atomically. Returns
// ErrDuplicateKey if run_id exists.
func (s *BacktestStore) Insert(ctx context.Context, r *domain.BacktestResult) error {
	if r == nil || r.RunID == "" || r.AssetID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO backtest_runs (
			run_id, asset_id,
			initial_capital, final_capital, peak_capital, max_drawdown, max_drawdown_pct,
			trades_attempted, trades_executed, trades_skipped, wins, losses,
			win_rate, profit_factor,
			avg_win_points, avg_loss_points, total_pnl_points, total_pnl,
			period_start, period_end, summary
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14,
			$15, $16, $17, $18,
			$19, $20, $21
		)
	`

	_, err = tx.Exec(ctx, runQuery,
		r.RunID, r.AssetID,
		r.InitialCapital.String(), r.FinalCapital.String(), r.PeakCapital.String(),
		r.MaxDrawdown.String(), r.MaxDrawdownPct,
		r.TradesAttempted, r.TradesExecuted, r.TradesSkipped, r.Wins, r.Losses,
		r.WinRate, r.ProfitFactor,
		r.AvgWinPoints, r.AvgLossPoints, r.TotalPnLPoints, r.TotalPnL.String(),
		r.PeriodStart, r.PeriodEnd, r.Summary,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}

	tradeQuery := `
		INSERT INTO backtest_trades (
			trade_id, run_id, asset_id, direction,
			entry, stop_loss, take_profit,
			entry_index, entry_time, exit_index, exit_time, exit_price, exit_reason,
			skipped, skip_reason, pnl_points, pnl_currency
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17
		)
	`

	for _, t := range r.Trades {
		_, err := tx.Exec(ctx, tradeQuery,
			t.TradeID, r.RunID, t.AssetID, string(t.Direction),
			t.Entry, t.StopLoss, t.TakeProfit,
			t.EntryIndex, t.EntryTime, t.ExitIndex, t.ExitTime, t.ExitPrice, t.ExitReason,
			t.Skipped, t.SkipReason, t.PnLPoints, t.PnLCurrency.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert backtest trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a run by ID. Returns ErrNotFound if not exists.
func (s *BacktestStore) GetByID(ctx context.Context, runID string) (*domain.BacktestResult, error) {
	query := `
		SELECT run_id, asset_id,
		       initial_capital, final_capital, peak_capital, max_drawdown, max_drawdown_pct,
		       trades_attempted, trades_executed, trades_skipped, wins, losses,
		       win_rate, profit_factor,
		       avg_win_points, avg_loss_points, total_pnl_points, total_pnl,
		       period_start, period_end, summary
		FROM backtest_runs
		WHERE run_id = $1
	`

	var r domain.BacktestResult
	var initial, final, peak, drawdown, totalPnL string
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID, &r.AssetID,
		&initial, &final, &peak, &drawdown, &r.MaxDrawdownPct,
		&r.TradesAttempted, &r.TradesExecuted, &r.TradesSkipped, &r.Wins, &r.Losses,
		&r.WinRate, &r.ProfitFactor,
		&r.AvgWinPoints, &r.AvgLossPoints, &r.TotalPnLPoints, &totalPnL,
		&r.PeriodStart, &r.PeriodEnd, &r.Summary,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}

	if err := parseRunAmounts(&r, initial, final, peak, drawdown, totalPnL); err != nil {
		return nil, err
	}
	r.PeriodStart = r.PeriodStart.UTC()
	r.PeriodEnd = r.PeriodEnd.UTC()

	trades, err := s.tradesByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	r.Trades = trades
	return &r, nil
}

// GetByAssetID retrieves all runs for an asset, ordered by period start ASC.
func (s *BacktestStore) GetByAssetID(ctx context.Context, assetID string) ([]*domain.BacktestResult, error) {
	query := `
		SELECT run_id
		FROM backtest_runs
		WHERE asset_id = $1
		ORDER BY period_start ASC
	`

	rows, err := s.pool.Query(ctx, query, assetID)
	if err != nil {
		return nil, fmt.Errorf("query backtest runs: %w", err)
	}
	defer rows.Close()

	var runIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		runIDs = append(runIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest runs: %w", err)
	}

	result := make([]*domain.BacktestResult, 0, len(runIDs))
	for _, id := range runIDs {
		r, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *BacktestStore) tradesByRunID(ctx context.Context, runID string) ([]domain.BacktestTrade, error) {
	query := `
		SELECT trade_id, asset_id, direction,
		       entry, stop_loss, take_profit,
		       entry_index, entry_time, exit_index, exit_time, exit_price, exit_reason,
		       skipped, skip_reason, pnl_points, pnl_currency
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY entry_index ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query backtest trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.BacktestTrade
	for rows.Next() {
		var t domain.BacktestTrade
		var direction, pnl string
		if err := rows.Scan(
			&t.TradeID, &t.AssetID, &direction,
			&t.Entry, &t.StopLoss, &t.TakeProfit,
			&t.EntryIndex, &t.EntryTime, &t.ExitIndex, &t.ExitTime, &t.ExitPrice, &t.ExitReason,
			&t.Skipped, &t.SkipReason, &t.PnLPoints, &pnl,
		); err != nil {
			return nil, fmt.Errorf("scan backtest trade: %w", err)
		}
		t.Direction = domain.Direction(direction)
		t.EntryTime = t.EntryTime.UTC()
		t.ExitTime = t.ExitTime.UTC()
		if t.PnLCurrency, err = decimal.NewFromString(pnl); err != nil {
			return nil, fmt.Errorf("parse trade pnl: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest trades: %w", err)
	}
	return trades, nil
}

func parseRunAmounts(r *domain.BacktestResult, initial, final, peak, drawdown, totalPnL string) error {
	var err error
	if r.InitialCapital, err = decimal.NewFromString(initial); err != nil {
		return fmt.Errorf("parse initial capital: %w", err)
	}
	if r.FinalCapital, err = decimal.NewFromString(final); err != nil {
		return fmt.Errorf("parse final capital: %w", err)
	}
	if r.PeakCapital, err = decimal.NewFromString(peak); err != nil {
		return fmt.Errorf("parse peak capital: %w", err)
	}
	if r.MaxDrawdown, err = decimal.NewFromString(drawdown); err != nil {
		return fmt.Errorf("parse max drawdown: %w", err)
	}
	if r.TotalPnL, err = decimal.NewFromString(totalPnL); err != nil {
		return fmt.Errorf("parse total pnl: %w", err)
	}
	return nil
}
