package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
	"market-structure-lab/internal/storage/postgres"
)

func seedRun(id string, start time.Time) *domain.BacktestResult {
	end := start.Add(30 * 24 * time.Hour)
	return &domain.BacktestResult{
		RunID:           id,
		AssetID:         "btc-15m",
		InitialCapital:  decimal.RequireFromString("1000"),
		FinalCapital:    decimal.RequireFromString("1012.5"),
		PeakCapital:     decimal.RequireFromString("1050"),
		MaxDrawdown:     decimal.RequireFromString("37.5"),
		MaxDrawdownPct:  3.5714285714,
		TradesAttempted: 3,
		TradesExecuted:  2,
		TradesSkipped:   1,
		Wins:            1,
		Losses:          1,
		WinRate:         0.5,
		ProfitFactor:    2,
		AvgWinPoints:    10,
		AvgLossPoints:   -5,
		TotalPnLPoints:  5,
		TotalPnL:        decimal.RequireFromString("12.5"),
		PeriodStart:     start,
		PeriodEnd:       end,
		Summary:         "btc-15m: 2 trades (1 wins, 1 losses, 1 skipped)",
		Trades: []domain.BacktestTrade{
			{
				TradeID:     "trade-1",
				AssetID:     "btc-15m",
				Direction:   domain.DirectionBullish,
				Entry:       100,
				StopLoss:    95,
				TakeProfit:  110,
				EntryIndex:  60,
				EntryTime:   start.Add(60 * 15 * time.Minute),
				ExitIndex:   72,
				ExitTime:    start.Add(72 * 15 * time.Minute),
				ExitPrice:   110,
				ExitReason:  domain.ExitReasonTakeProfit,
				PnLPoints:   10,
				PnLCurrency: decimal.RequireFromString("50"),
			},
			{
				TradeID:     "trade-2",
				AssetID:     "btc-15m",
				Direction:   domain.DirectionBearish,
				Entry:       105,
				StopLoss:    110,
				TakeProfit:  95,
				EntryIndex:  90,
				EntryTime:   start.Add(90 * 15 * time.Minute),
				ExitIndex:   95,
				ExitTime:    start.Add(95 * 15 * time.Minute),
				ExitPrice:   110,
				ExitReason:  domain.ExitReasonStopLoss,
				PnLPoints:   -5,
				PnLCurrency: decimal.RequireFromString("-37.5"),
			},
			{
				TradeID:    "trade-3",
				AssetID:    "btc-15m",
				Direction:  domain.DirectionBullish,
				Entry:      101,
				StopLoss:   96,
				TakeProfit: 111,
				EntryIndex: 120,
				EntryTime:  start.Add(120 * 15 * time.Minute),
				Skipped:    true,
				SkipReason: domain.SkipReasonInsufficientCapital,
				ExitTime:   start.Add(120 * 15 * time.Minute),
			},
		},
	}
}

func TestBacktestStore_RoundTripExactAmounts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewBacktestStore(pool)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := seedRun("run-1", start)

	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)

	// NUMERIC columns must preserve the decimal values exactly.
	assert.True(t, got.FinalCapital.Equal(run.FinalCapital), "final capital %s", got.FinalCapital)
	assert.True(t, got.MaxDrawdown.Equal(run.MaxDrawdown), "max drawdown %s", got.MaxDrawdown)
	assert.True(t, got.TotalPnL.Equal(run.TotalPnL), "total pnl %s", got.TotalPnL)

	require.Len(t, got.Trades, 3)
	assert.True(t, got.Trades[1].PnLCurrency.Equal(decimal.RequireFromString("-37.5")))
	assert.Equal(t, run.Trades[0].TradeID, got.Trades[0].TradeID, "trades ordered by entry index")
	assert.True(t, got.Trades[2].Skipped)
	assert.Equal(t, domain.SkipReasonInsufficientCapital, got.Trades[2].SkipReason)
}

func TestBacktestStore_InsertIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewBacktestStore(pool)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Duplicate trade IDs inside the batch violate the primary key; the
	// run row must roll back with the trades.
	run := seedRun("run-1", start)
	run.Trades[1].TradeID = run.Trades[0].TradeID
	err := store.Insert(ctx, run)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "run-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBacktestStore_AppendOnly(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewBacktestStore(pool)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, seedRun("run-1", start)))

	dup := seedRun("run-1", start)
	for i := range dup.Trades {
		dup.Trades[i].TradeID += "-dup"
	}
	err := store.Insert(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestBacktestStore_GetByAssetIDOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewBacktestStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-c", "run-a", "run-b"} {
		run := seedRun(id, base.Add(time.Duration(2-i)*30*24*time.Hour))
		for j := range run.Trades {
			run.Trades[j].TradeID = id + "-" + run.Trades[j].TradeID
		}
		require.NoError(t, store.Insert(ctx, run))
	}

	got, err := store.GetByAssetID(ctx, "btc-15m")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, !got[i].PeriodStart.Before(got[i-1].PeriodStart), "runs ordered by period start at %d", i)
	}
}
