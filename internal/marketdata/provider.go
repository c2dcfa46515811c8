// Package marketdata provides candle history and live candle streams
// from exchange endpoints.
package marketdata

import (
	"context"

	"market-structure-lab/internal/domain"
)

// Provider fetches closed-candle history for an asset. Implementations
// must return candles in ascending timestamp order and fail hard when
// the venue returns fewer candles than requested; silently analyzing a
// truncated history would corrupt every downstream result.
type Provider interface {
	FetchCandles(ctx context.Context, asset domain.Asset, count int) ([]domain.Candle, error)
}
