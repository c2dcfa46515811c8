package poi

import "market-structure-lab/internal/domain"

// DetectOrderBlocks scans candles for order blocks: opposite-colored
// candles preceding displacement. A candidate qualifies when it seeds an
// imbalance, sweeps a prior swing extreme without closing through it,
// or directly precedes a structural break within the configured
// horizon, and the next candle confirms by closing beyond the
// candidate's own extreme. Adjacent same-kind candidates within one
// index collapse to the earlier entry.
func DetectOrderBlocks(candles []domain.Candle, swings []domain.SwingPoint, events []domain.StructuralEvent, zones []domain.Imbalance, cfg domain.Config) []domain.OrderBlock {
	var blocks []domain.OrderBlock
	if len(candles) < 2 {
		return blocks
	}

	for i := 0; i < len(candles)-1; i++ {
		c := candles[i]
		next := candles[i+1]

		if c.Bearish() && next.Close > c.High {
			if b, ok := classify(c, i, domain.DirectionBullish, candles, swings, events, zones, cfg); ok {
				blocks = appendCollapsed(blocks, b)
			}
		}
		if c.Bullish() && next.Close < c.Low {
			if b, ok := classify(c, i, domain.DirectionBearish, candles, swings, events, zones, cfg); ok {
				blocks = appendCollapsed(blocks, b)
			}
		}
	}

	for k := range blocks {
		resolveBlockMitigation(&blocks[k], candles)
	}
	return blocks
}

// classify checks the three qualifying origins for a confirmed candidate.
func classify(c domain.Candle, i int, dir domain.Direction, candles []domain.Candle, swings []domain.SwingPoint, events []domain.StructuralEvent, zones []domain.Imbalance, cfg domain.Config) (domain.OrderBlock, bool) {
	hasImbalance := false
	for _, z := range zones {
		if z.StartIndex == i && z.Direction == dir {
			hasImbalance = true
			break
		}
	}

	sweptLiquidity := sweptPriorSwing(c, i, dir, swings, cfg.SwingRadius)

	precedesBreak := false
	for _, e := range events {
		if e.IsBreak() && e.Direction == dir && e.Index > i && e.Index <= i+cfg.OrderBlockHorizon {
			precedesBreak = true
			break
		}
	}

	if !hasImbalance && !sweptLiquidity && !precedesBreak {
		return domain.OrderBlock{}, false
	}

	return domain.OrderBlock{
		Direction:      dir,
		Top:            c.High,
		Bottom:         c.Low,
		Open:           c.Open,
		Close:          c.Close,
		Index:          i,
		Timestamp:      c.Timestamp,
		HasImbalance:   hasImbalance,
		SweptLiquidity: sweptLiquidity,
	}, true
}

// sweptPriorSwing reports whether the candle wicked through the most
// recent confirmed swing extreme without closing beyond it.
func sweptPriorSwing(c domain.Candle, i int, dir domain.Direction, swings []domain.SwingPoint, radius int) bool {
	wantKind := domain.SwingLow
	if dir == domain.DirectionBearish {
		wantKind = domain.SwingHigh
	}

	var prior *domain.SwingPoint
	for k := range swings {
		s := &swings[k]
		if s.Kind != wantKind || s.Index+radius > i {
			continue
		}
		prior = s
	}
	if prior == nil {
		return false
	}

	if dir == domain.DirectionBullish {
		return c.Low < prior.Price && c.Close > prior.Price
	}
	return c.High > prior.Price && c.Close < prior.Price
}

// appendCollapsed drops a candidate adjacent (within one index) to the
// previous accepted block of the same kind.
func appendCollapsed(blocks []domain.OrderBlock, b domain.OrderBlock) []domain.OrderBlock {
	if n := len(blocks); n > 0 {
		last := blocks[n-1]
		if last.Direction == b.Direction && b.Index-last.Index <= 1 {
			return blocks
		}
	}
	return append(blocks, b)
}

// resolveBlockMitigation mirrors the imbalance rule: midpoint touch with
// a close back inside, or a full sweep through the far edge. The scan
// starts after the confirmation candle.
func resolveBlockMitigation(b *domain.OrderBlock, candles []domain.Candle) {
	mid := b.Midpoint()
	for i := b.Index + 2; i < len(candles); i++ {
		c := candles[i]
		if b.Direction == domain.DirectionBullish {
			if c.Low <= b.Bottom || (c.Low <= mid && c.Close >= b.Bottom) {
				b.Mitigated = true
				return
			}
		} else {
			if c.High >= b.Top || (c.High >= mid && c.Close <= b.Top) {
				b.Mitigated = true
				return
			}
		}
	}
}

// Collect merges zones and blocks into a single tagged-union POI list,
// ordered by forming index.
func Collect(zones []domain.Imbalance, blocks []domain.OrderBlock) []domain.POI {
	out := make([]domain.POI, 0, len(zones)+len(blocks))
	zi, bi := 0, 0
	for zi < len(zones) || bi < len(blocks) {
		switch {
		case bi >= len(blocks):
			out = append(out, domain.ImbalancePOI(&zones[zi]))
			zi++
		case zi >= len(zones):
			out = append(out, domain.OrderBlockPOI(&blocks[bi]))
			bi++
		case zones[zi].StartIndex <= blocks[bi].Index:
			out = append(out, domain.ImbalancePOI(&zones[zi]))
			zi++
		default:
			out = append(out, domain.OrderBlockPOI(&blocks[bi]))
			bi++
		}
	}
	return out
}
