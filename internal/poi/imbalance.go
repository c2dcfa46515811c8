// Package poi detects points of interest: imbalance (gap) zones and
// order blocks, with mitigation tracked over subsequent candles.
package poi

import (
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/indicator"
)

// DetectImbalances scans every triple of consecutive candles for price
// gaps at least MinGapFactor times the ATR at the closing candle. While
// the ATR is still warming up the size gate is waived and any positive
// gap qualifies. Mitigation is resolved against all later candles.
func DetectImbalances(candles []domain.Candle, atr indicator.Series, cfg domain.Config) []domain.Imbalance {
	var zones []domain.Imbalance
	for i := 2; i < len(candles); i++ {
		a, c := candles[i-2], candles[i]

		threshold := 0.0
		if v, ok := atr.At(i); ok {
			threshold = v * cfg.MinGapFactor
		}

		if gap := c.Low - a.High; gap > 0 && gap >= threshold {
			zones = append(zones, domain.Imbalance{
				Direction:  domain.DirectionBullish,
				Top:        c.Low,
				Bottom:     a.High,
				StartIndex: i - 2,
				EndIndex:   i,
			})
		}
		if gap := a.Low - c.High; gap > 0 && gap >= threshold {
			zones = append(zones, domain.Imbalance{
				Direction:  domain.DirectionBearish,
				Top:        a.Low,
				Bottom:     c.High,
				StartIndex: i - 2,
				EndIndex:   i,
			})
		}
	}

	for k := range zones {
		resolveImbalanceMitigation(&zones[k], candles)
	}
	return zones
}

// resolveImbalanceMitigation marks the zone mitigated at the first later
// candle whose wick reaches the midpoint while closing back inside the
// zone, or whose wick passes fully through the far edge.
func resolveImbalanceMitigation(z *domain.Imbalance, candles []domain.Candle) {
	mid := z.Midpoint()
	for i := z.EndIndex + 1; i < len(candles); i++ {
		c := candles[i]
		if z.Direction == domain.DirectionBullish {
			if c.Low <= z.Bottom || (c.Low <= mid && c.Close >= z.Bottom) {
				z.Mitigated = true
				return
			}
		} else {
			if c.High >= z.Top || (c.High >= mid && c.Close <= z.Top) {
				z.Mitigated = true
				return
			}
		}
	}
}
