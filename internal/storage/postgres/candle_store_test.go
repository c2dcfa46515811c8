package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/storage"
	"market-structure-lab/internal/storage/postgres"
)

func seedCandles(base time.Time, n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      100 + float64(i),
			High:      101 + float64(i),
			Low:       99 + float64(i),
			Close:     100.5 + float64(i),
			Volume:    1000,
		}
	}
	return candles
}

func TestCandleStore_InsertBulkAndQuery(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewCandleStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := seedCandles(base, 10)

	require.NoError(t, store.InsertBulk(ctx, "btc-15m", all))

	got, err := store.GetByAssetID(ctx, "btc-15m")
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp), "ascending order at %d", i)
	}
	assert.Equal(t, all[0], got[0], "timestamps must come back in UTC")
}

func TestCandleStore_DuplicateRollsBackBatch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewCandleStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "btc-15m", seedCandles(base, 3)))

	// Overlapping batch: the shared timestamps violate the primary key
	// and the whole transaction must roll back.
	overlap := seedCandles(base.Add(2*15*time.Minute), 3)
	err := store.InsertBulk(ctx, "btc-15m", overlap)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByAssetID(ctx, "btc-15m")
	require.NoError(t, err)
	assert.Len(t, got, 3, "failed batch must not leave partial rows")
}

func TestCandleStore_GetByTimeRangeInclusive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewCandleStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := seedCandles(base, 10)

	require.NoError(t, store.InsertBulk(ctx, "btc-15m", all))

	got, err := store.GetByTimeRange(ctx, "btc-15m", all[2].Timestamp, all[5].Timestamp)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].Timestamp.Equal(all[2].Timestamp))
	assert.True(t, got[3].Timestamp.Equal(all[5].Timestamp))
}

func TestCandleStore_GetLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewCandleStore(pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := seedCandles(base, 10)

	require.NoError(t, store.InsertBulk(ctx, "btc-15m", all))

	got, err := store.GetLatest(ctx, "btc-15m", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Timestamp.Equal(all[7].Timestamp), "window starts at the third newest")
	assert.True(t, got[2].Timestamp.Equal(all[9].Timestamp), "window ends at the newest")

	_, err = store.GetLatest(ctx, "btc-15m", 0)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
