// Package structure classifies market structure: liquidity sweeps,
// breaks of structure, and changes of character over a candle sequence.
package structure

import (
	"fmt"

	"market-structure-lab/internal/domain"
)

// Result is the outcome of one full scan: the ordered event list plus
// the final trend state.
type Result struct {
	Events        []domain.StructuralEvent
	Trend         domain.Direction
	LastMajorHigh *domain.SwingPoint
	LastMajorLow  *domain.SwingPoint
}

// LatestBreak returns the most recent BOS/CHoCH event, or nil.
func (r Result) LatestBreak() *domain.StructuralEvent {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].IsBreak() {
			return &r.Events[i]
		}
	}
	return nil
}

// scanState carries the per-candle walking state.
type scanState struct {
	trend       domain.Direction
	majorHigh   *domain.SwingPoint // classification anchor, refreshed on bullish breaks
	majorLow    *domain.SwingPoint // classification anchor, refreshed on bearish breaks
	breakUpAt   int                // candle index of the last bullish break, -1 if none
	breakDownAt int                // candle index of the last bearish break, -1 if none
}

// Evaluate scans candles in index order and emits structural events.
// A swing point becomes visible only once its confirming look-ahead
// window has fully formed, so the scan at candle i never uses
// information from candles beyond i. With fewer than 2 swings the
// result carries an empty event list.
func Evaluate(candles []domain.Candle, swings []domain.SwingPoint, cfg domain.Config) Result {
	res := Result{Trend: domain.DirectionUndetermined}
	if len(swings) < 2 {
		return res
	}

	highs := filter(swings, domain.SwingHigh)
	lows := filter(swings, domain.SwingLow)

	st := scanState{
		trend:       domain.DirectionUndetermined,
		breakUpAt:   -1,
		breakDownAt: -1,
	}

	r := cfg.SwingRadius
	hi, lo := 0, 0 // count of visible swings in each list
	seeded := false
	sweptAt := map[string]int{}

	for i := 0; i < len(candles); i++ {
		// Advance visibility: swing j is confirmed at candle j+r.
		for hi < len(highs) && highs[hi].Index+r <= i {
			hi++
		}
		for lo < len(lows) && lows[lo].Index+r <= i {
			lo++
		}

		// Seed the trend once enough swings are visible. Visibility is a
		// function of the candle index alone, so the seed is identical
		// on any truncation of the same history.
		if !seeded && hi >= 2 && lo >= 2 {
			st.trend = seedTrend(highs[:hi], lows[:lo], cfg.StructureSeedSwings)
			seeded = true
		}
		var lastHigh, lastLow *domain.SwingPoint
		if hi > 0 {
			lastHigh = &highs[hi-1]
		}
		if lo > 0 {
			lastLow = &lows[lo-1]
		}

		c := candles[i]

		// Sweep detection: wick-only breach of the most recent swing.
		if lastHigh != nil && c.High > lastHigh.Price && c.Close < lastHigh.Price {
			if sweepEligible(sweptAt, sweepKey(*lastHigh), i, cfg.SweepDedupWindow) {
				res.Events = append(res.Events, domain.StructuralEvent{
					Kind:      domain.EventLiquiditySweep,
					Level:     lastHigh.Price,
					Index:     i,
					Timestamp: c.Timestamp,
					Direction: domain.DirectionBearish,
					Swing:     *lastHigh,
				})
				sweptAt[sweepKey(*lastHigh)] = i
			}
		}
		if lastLow != nil && c.Low < lastLow.Price && c.Close > lastLow.Price {
			if sweepEligible(sweptAt, sweepKey(*lastLow), i, cfg.SweepDedupWindow) {
				res.Events = append(res.Events, domain.StructuralEvent{
					Kind:      domain.EventLiquiditySweep,
					Level:     lastLow.Price,
					Index:     i,
					Timestamp: c.Timestamp,
					Direction: domain.DirectionBullish,
					Swing:     *lastLow,
				})
				sweptAt[sweepKey(*lastLow)] = i
			}
		}

		// Break detection: close beyond the structurally relevant extreme.
		if rel := st.breakTarget(domain.DirectionBullish, highs[:hi]); rel != nil && c.Close > rel.Price {
			kind := domain.EventBreakOfStructure
			if st.trend == domain.DirectionBearish || (st.majorLow != nil && rel.Index < st.majorLow.Index) {
				kind = domain.EventChangeOfCharacter
			}
			res.Events = append(res.Events, domain.StructuralEvent{
				Kind:      kind,
				Level:     rel.Price,
				Index:     i,
				Timestamp: c.Timestamp,
				Direction: domain.DirectionBullish,
				Swing:     *rel,
			})
			st.trend = domain.DirectionBullish
			st.majorHigh = rel
			st.majorLow = lastLow // re-anchor to the low preceding the break
			st.breakUpAt = i
		}
		if rel := st.breakTarget(domain.DirectionBearish, lows[:lo]); rel != nil && c.Close < rel.Price {
			kind := domain.EventBreakOfStructure
			if st.trend == domain.DirectionBullish || (st.majorHigh != nil && rel.Index < st.majorHigh.Index) {
				kind = domain.EventChangeOfCharacter
			}
			res.Events = append(res.Events, domain.StructuralEvent{
				Kind:      kind,
				Level:     rel.Price,
				Index:     i,
				Timestamp: c.Timestamp,
				Direction: domain.DirectionBearish,
				Swing:     *rel,
			})
			st.trend = domain.DirectionBearish
			st.majorLow = rel
			st.majorHigh = lastHigh
			st.breakDownAt = i
		}
	}

	res.Trend = st.trend
	res.LastMajorHigh = st.majorHigh
	res.LastMajorLow = st.majorLow
	return res
}

// breakTarget picks the swing a break in the given direction must close
// through. With the trend aligned, that is the first swing formed after
// the last same-direction break (the broken extreme is never a target
// twice). Against the trend it is the first swing formed after the
// opposing major extreme, falling back to the most recent swing.
func (st *scanState) breakTarget(dir domain.Direction, visible []domain.SwingPoint) *domain.SwingPoint {
	if len(visible) == 0 {
		return nil
	}

	lastBreak := st.breakUpAt
	opposing := st.majorLow
	if dir == domain.DirectionBearish {
		lastBreak = st.breakDownAt
		opposing = st.majorHigh
	}

	if st.trend == dir {
		if lastBreak < 0 {
			return &visible[len(visible)-1]
		}
		for k := range visible {
			if visible[k].Index > lastBreak {
				return &visible[k]
			}
		}
		return nil // no new swing formed since the break yet
	}

	if opposing != nil {
		for k := range visible {
			if visible[k].Index > opposing.Index {
				return &visible[k]
			}
		}
	}
	return &visible[len(visible)-1]
}

// seedTrend inspects the earliest seedN swings of each kind. Rising
// highs and rising lows seed bullish, falling both seed bearish.
func seedTrend(highs, lows []domain.SwingPoint, seedN int) domain.Direction {
	if seedN < 2 {
		seedN = 2
	}
	if len(highs) < 2 || len(lows) < 2 {
		return domain.DirectionUndetermined
	}

	h := highs[:min(seedN, len(highs))]
	l := lows[:min(seedN, len(lows))]

	switch {
	case rising(h) && rising(l):
		return domain.DirectionBullish
	case falling(h) && falling(l):
		return domain.DirectionBearish
	default:
		return domain.DirectionUndetermined
	}
}

func rising(s []domain.SwingPoint) bool {
	for i := 1; i < len(s); i++ {
		if s[i].Price <= s[i-1].Price {
			return false
		}
	}
	return true
}

func falling(s []domain.SwingPoint) bool {
	for i := 1; i < len(s); i++ {
		if s[i].Price >= s[i-1].Price {
			return false
		}
	}
	return true
}

func filter(swings []domain.SwingPoint, kind domain.SwingKind) []domain.SwingPoint {
	var out []domain.SwingPoint
	for _, s := range swings {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// sweepEligible reports whether a sweep of the keyed swing may be
// emitted at candle i. A swept swing is retired permanently by default;
// a positive dedup window re-arms it after that many candles.
func sweepEligible(sweptAt map[string]int, key string, i, window int) bool {
	at, swept := sweptAt[key]
	if !swept {
		return true
	}
	return window > 0 && i-at > window
}

func sweepKey(s domain.SwingPoint) string {
	return fmt.Sprintf("%s|%d", s.Kind, s.Index)
}
