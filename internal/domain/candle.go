package domain

import "time"

// Candle represents one price bar. Immutable once produced; the slice
// index is the canonical position reference used by all downstream types.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Range returns the full high-low extent of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}
