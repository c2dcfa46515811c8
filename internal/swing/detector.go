// Package swing detects fractal swing points: local extrema confirmed by
// a symmetric look-around window.
package swing

import "market-structure-lab/internal/domain"

// Detect returns every swing point in the candle sequence using window
// radius r. A candle i is a swing high when high[i] >= high[i±k] for
// k = 1..r (plateaus count), symmetrically for lows. Fewer than 2r+1
// candles yield an empty result, not an error.
func Detect(candles []domain.Candle, r int) []domain.SwingPoint {
	n := len(candles)
	if r < 1 || n < 2*r+1 {
		return nil
	}

	out := make([]domain.SwingPoint, 0, n/4)
	for i := r; i < n-r; i++ {
		hi, lo := true, true
		for k := 1; k <= r; k++ {
			if candles[i-k].High > candles[i].High || candles[i+k].High > candles[i].High {
				hi = false
			}
			if candles[i-k].Low < candles[i].Low || candles[i+k].Low < candles[i].Low {
				lo = false
			}
			if !hi && !lo {
				break
			}
		}
		if hi {
			out = append(out, domain.SwingPoint{
				Kind:      domain.SwingHigh,
				Price:     candles[i].High,
				Index:     i,
				Timestamp: candles[i].Timestamp,
			})
		}
		if lo {
			out = append(out, domain.SwingPoint{
				Kind:      domain.SwingLow,
				Price:     candles[i].Low,
				Index:     i,
				Timestamp: candles[i].Timestamp,
			})
		}
	}
	return out
}

// Highs filters swing highs from a mixed swing list, preserving order.
func Highs(swings []domain.SwingPoint) []domain.SwingPoint {
	var out []domain.SwingPoint
	for _, s := range swings {
		if s.Kind == domain.SwingHigh {
			out = append(out, s)
		}
	}
	return out
}

// Lows filters swing lows from a mixed swing list, preserving order.
func Lows(swings []domain.SwingPoint) []domain.SwingPoint {
	var out []domain.SwingPoint
	for _, s := range swings {
		if s.Kind == domain.SwingLow {
			out = append(out, s)
		}
	}
	return out
}
