package indicator

import (
	"math"

	"market-structure-lab/internal/domain"
)

// ATR computes the average true range over the candle sequence using
// Wilder smoothing. The value at index i depends only on candles [0, i].
// Slots before the warm-up period stay undefined.
func ATR(candles []domain.Candle, period int) Series {
	n := len(candles)
	out := NewSeries(n)
	if period < 1 || n < period+1 {
		return out
	}

	// True range needs the previous close, so it starts at index 1.
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		c := candles[i]
		prevClose := candles[i-1].Close
		tr[i] = math.Max(c.Range(),
			math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
	}

	// Seed with the simple average of the first period true ranges.
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out.Set(period, atr)

	// Wilder smoothing for the remainder.
	for i := period + 1; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out.Set(i, atr)
	}

	return out
}
