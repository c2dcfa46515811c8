// Package inducement identifies the pullback extremum expected to be
// swept before trend continuation after a structural break.
package inducement

import "market-structure-lab/internal/domain"

// Find locates the inducement for the most recent BOS/CHoCH in events
// and lazily resolves its sweep status against the candles that follow.
// Returns nil when no break exists or no qualifying pullback swing
// formed inside the lookback window.
func Find(candles []domain.Candle, swings []domain.SwingPoint, events []domain.StructuralEvent, cfg domain.Config) *domain.InducementPoint {
	var brk *domain.StructuralEvent
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsBreak() {
			brk = &events[i]
			break
		}
	}
	if brk == nil {
		return nil
	}

	// A bullish break is followed by a pullback low; bearish by a high.
	wantKind := domain.SwingLow
	if brk.Direction == domain.DirectionBearish {
		wantKind = domain.SwingHigh
	}

	windowEnd := brk.Index + cfg.InducementLookback
	var idm *domain.InducementPoint
	for _, s := range swings {
		if s.Kind != wantKind || s.Index <= brk.Index {
			continue
		}
		if s.Index > windowEnd {
			break
		}
		idm = &domain.InducementPoint{
			Level:      s.Price,
			Index:      s.Index,
			Timestamp:  s.Timestamp,
			Kind:       s.Kind,
			EventIndex: brk.Index,
		}
		break // earliest qualifying swing wins
	}
	if idm == nil {
		return nil
	}

	idm.Swept = resolveSweep(candles, events, brk, idm)
	return idm
}

// resolveSweep walks candles after the inducement and reports whether
// price traded through its level before any opposing structural event.
// An opposing break invalidates the inducement's relevance, so the scan
// aborts there with swept=false.
func resolveSweep(candles []domain.Candle, events []domain.StructuralEvent, brk *domain.StructuralEvent, idm *domain.InducementPoint) bool {
	opposingAt := -1
	for _, e := range events {
		if e.Index > idm.Index && e.IsBreak() && e.Direction == brk.Direction.Opposite() {
			opposingAt = e.Index
			break
		}
	}

	for i := idm.Index + 1; i < len(candles); i++ {
		if opposingAt >= 0 && i >= opposingAt {
			return false
		}
		if idm.Kind == domain.SwingLow && candles[i].Low < idm.Level {
			return true
		}
		if idm.Kind == domain.SwingHigh && candles[i].High > idm.Level {
			return true
		}
	}
	return false
}
