// Package signal derives trade signals from market-structure context.
// Evaluation is an explicit state transition: the caller passes the
// previous State in and receives the next State out, so the single
// pending-entry slot is visible and testable rather than hidden in
// shared storage.
package signal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/idhash"
	"market-structure-lab/internal/indicator"
	"market-structure-lab/internal/structure"
)

// View is the full analysis context for one evaluation: candle history
// up to "now" plus every derived artifact computed from it.
type View struct {
	AssetID    string
	Candles    []domain.Candle
	ATR        indicator.Series
	Structure  structure.Result
	Inducement *domain.InducementPoint
	POIs       []domain.POI
}

// State is the cross-evaluation state: at most one pending entry.
type State struct {
	Pending *domain.PendingSignal
}

// Evaluate runs one step of the signal state machine and returns the
// next state plus the signal for this step. It never fails; degenerate
// inputs yield Invalid or Neutral signals with an explanatory trail.
func Evaluate(state State, view View, cfg domain.Config) (State, domain.TradeSignal) {
	n := len(view.Candles)
	if n == 0 {
		return state, invalid(view, "no candle history supplied")
	}
	now := view.Candles[n-1]
	nowIdx := n - 1

	var trail []string

	// Phase 1: service the pending slot.
	if state.Pending != nil {
		next, sig, done := servicePending(state, view, now, nowIdx, cfg, &trail)
		if done {
			return next, sig
		}
		state = next // pending discarded; fall through to fresh derivation
	}

	// Phase 2: derive a fresh setup.
	atr, ok := view.ATR.At(nowIdx)
	if !ok || atr <= 0 {
		return state, invalid(view, "ATR unavailable: insufficient data for evaluation")
	}

	brk := view.Structure.LatestBreak()
	if brk == nil {
		trail = append(trail, "no structural break found")
		return state, neutral(view, trail)
	}
	trail = append(trail, fmt.Sprintf("latest %s at index %d (%s)", brk.Kind, brk.Index, brk.Direction))

	idm := view.Inducement
	if idm == nil {
		trail = append(trail, "no inducement formed after the break")
		return state, neutral(view, trail)
	}
	if !idm.Swept {
		trail = append(trail, fmt.Sprintf("inducement at %.5f not yet swept", idm.Level))
		return state, neutral(view, trail)
	}
	trail = append(trail, fmt.Sprintf("inducement at %.5f swept", idm.Level))

	cand := selectPOI(view.POIs, brk.Direction, idm.Level, atr, cfg)
	if cand == nil {
		trail = append(trail, "no unmitigated point of interest beyond the inducement")
		return state, neutral(view, trail)
	}
	trail = append(trail, fmt.Sprintf("selected %s zone [%.5f, %.5f]", cand.Kind, cand.Bottom(), cand.Top()))

	entry, stop, target := levels(*cand, brk.Direction, atr, cfg)
	conf := confidence(now, cfg)

	// Immediate entry when price is already inside the zone.
	if overlaps(now, *cand) {
		entry = conservativeEntry(now, *cand, brk.Direction)
		target = projectTarget(entry, stop, brk.Direction, cfg)
		trail = append(trail, "price inside the zone: immediate entry")
		return state, executable(view, now, brk.Direction, entry, stop, target, conf, nowIdx, trail, cfg)
	}

	state.Pending = &domain.PendingSignal{
		POI:        *cand,
		Direction:  brk.Direction,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: target,
		EventIndex: brk.Index,
		Confidence: conf,
		CreatedAt:  nowIdx,
	}
	trail = append(trail, "zone not yet reached: awaiting entry")
	return state, awaiting(view, now, entry, stop, target, conf, nowIdx, trail, cfg)
}

// servicePending resolves, invalidates, or keeps the pending slot.
// done=false means the pending was discarded and evaluation should
// continue with a fresh derivation.
func servicePending(state State, view View, now domain.Candle, nowIdx int, cfg domain.Config, trail *[]string) (State, domain.TradeSignal, bool) {
	p := state.Pending

	// The originating break must still be locatable and unopposed.
	origin := findBreakAt(view.Structure.Events, p.EventIndex, p.Direction)
	if origin == nil {
		*trail = append(*trail, "pending signal lost its structural origin: discarded")
		state.Pending = nil
		return state, domain.TradeSignal{}, false
	}
	if latest := view.Structure.LatestBreak(); latest != nil &&
		latest.Index > p.EventIndex && latest.Direction == p.Direction.Opposite() {
		*trail = append(*trail, "opposing structural break invalidated the pending signal")
		state.Pending = nil
		return state, domain.TradeSignal{}, false
	}

	if overlaps(now, p.POI) {
		entry := conservativeEntry(now, p.POI, p.Direction)
		target := projectTarget(entry, p.StopLoss, p.Direction, cfg)
		conf := confidence(now, cfg)
		*trail = append(*trail, "price reached the pending zone: entry triggered")
		state.Pending = nil
		return state, executable(view, now, p.Direction, entry, p.StopLoss, target, conf, nowIdx, *trail, cfg), true
	}

	// Overshoot: price gapped past the zone without touching it.
	if atr, ok := view.ATR.At(nowIdx); ok && atr > 0 {
		margin := atr * cfg.OvershootATRFactor
		if p.Direction == domain.DirectionBullish && now.High < p.POI.Bottom()-margin {
			*trail = append(*trail, "price overshot the pending zone: discarded")
			state.Pending = nil
			return state, domain.TradeSignal{}, false
		}
		if p.Direction == domain.DirectionBearish && now.Low > p.POI.Top()+margin {
			*trail = append(*trail, "price overshot the pending zone: discarded")
			state.Pending = nil
			return state, domain.TradeSignal{}, false
		}
	}

	*trail = append(*trail, "pending zone intact: awaiting entry")
	return state, awaiting(view, now, p.Entry, p.StopLoss, p.TakeProfit, p.Confidence, nowIdx, *trail, cfg), true
}

// selectPOI picks the closest unmitigated zone whose boundary lies
// beyond the inducement level, within the ATR-scaled distance cap.
func selectPOI(pois []domain.POI, dir domain.Direction, idmLevel, atr float64, cfg domain.Config) *domain.POI {
	maxDist := atr * cfg.MaxPOIDistanceFactor

	var candidates []domain.POI
	for _, p := range pois {
		if p.Mitigated() || p.Direction() != dir {
			continue
		}
		var dist float64
		if dir == domain.DirectionBullish {
			dist = idmLevel - p.Top()
		} else {
			dist = p.Bottom() - idmLevel
		}
		if dist < 0 || dist > maxDist {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		var di, dj float64
		if dir == domain.DirectionBullish {
			di, dj = idmLevel-candidates[i].Top(), idmLevel-candidates[j].Top()
		} else {
			di, dj = candidates[i].Bottom()-idmLevel, candidates[j].Bottom()-idmLevel
		}
		return di < dj
	})
	return &candidates[0]
}

// levels computes proposed entry, stop, and target for a zone.
func levels(p domain.POI, dir domain.Direction, atr float64, cfg domain.Config) (entry, stop, target float64) {
	if dir == domain.DirectionBullish {
		entry = p.Top()
		stop = p.Bottom() - atr*cfg.SLMultiplier - entry*cfg.SLBufferFactor
	} else {
		entry = p.Bottom()
		stop = p.Top() + atr*cfg.SLMultiplier + entry*cfg.SLBufferFactor
	}
	target = projectTarget(entry, stop, dir, cfg)
	return entry, stop, target
}

// projectTarget applies the risk/reward law to an entry/stop pair.
func projectTarget(entry, stop float64, dir domain.Direction, cfg domain.Config) float64 {
	risk := math.Abs(entry - stop)
	if dir == domain.DirectionBullish {
		return entry + risk*cfg.MinRiskReward
	}
	return entry - risk*cfg.MinRiskReward
}

// overlaps reports whether the candle's range touches the zone.
func overlaps(c domain.Candle, p domain.POI) bool {
	return c.Low <= p.Top() && c.High >= p.Bottom()
}

// conservativeEntry picks the worse of candle open and the zone edge:
// the higher price for a buy, the lower for a sell.
func conservativeEntry(c domain.Candle, p domain.POI, dir domain.Direction) float64 {
	if dir == domain.DirectionBullish {
		return math.Max(c.Open, p.Top())
	}
	return math.Min(c.Open, p.Bottom())
}

// confidence scales with the session window only.
func confidence(c domain.Candle, cfg domain.Config) domain.Confidence {
	if cfg.InSession(c.Timestamp.UTC().Hour()) {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}

func sessionLabel(c domain.Candle, cfg domain.Config) string {
	if cfg.InSession(c.Timestamp.UTC().Hour()) {
		return cfg.SessionLabel
	}
	return "OFF_SESSION"
}

func findBreakAt(events []domain.StructuralEvent, index int, dir domain.Direction) *domain.StructuralEvent {
	for i := range events {
		if events[i].Index == index && events[i].IsBreak() && events[i].Direction == dir {
			return &events[i]
		}
	}
	return nil
}

func executable(view View, now domain.Candle, dir domain.Direction, entry, stop, target float64, conf domain.Confidence, idx int, trail []string, cfg domain.Config) domain.TradeSignal {
	kind := domain.SignalBuy
	if dir == domain.DirectionBearish {
		kind = domain.SignalSell
	}
	return domain.TradeSignal{
		SignalID:   idhash.ComputeSignalID(view.AssetID, string(kind), entry, stop, target, idx),
		AssetID:    view.AssetID,
		Kind:       kind,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: conf,
		Session:    sessionLabel(now, cfg),
		Reasons:    trail,
		Timestamp:  now.Timestamp,
	}
}

func awaiting(view View, now domain.Candle, entry, stop, target float64, conf domain.Confidence, idx int, trail []string, cfg domain.Config) domain.TradeSignal {
	return domain.TradeSignal{
		SignalID:   idhash.ComputeSignalID(view.AssetID, string(domain.SignalAwaitingEntry), entry, stop, target, idx),
		AssetID:    view.AssetID,
		Kind:       domain.SignalAwaitingEntry,
		Entry:      entry,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: conf,
		Session:    sessionLabel(now, cfg),
		Reasons:    trail,
		Timestamp:  now.Timestamp,
	}
}

func neutral(view View, trail []string) domain.TradeSignal {
	return domain.TradeSignal{
		AssetID:    view.AssetID,
		Kind:       domain.SignalNeutral,
		Confidence: domain.ConfidenceUndetermined,
		Reasons:    trail,
		Timestamp:  lastTimestamp(view),
	}
}

func invalid(view View, reason string) domain.TradeSignal {
	return domain.TradeSignal{
		AssetID:    view.AssetID,
		Kind:       domain.SignalInvalid,
		Confidence: domain.ConfidenceUndetermined,
		Reasons:    []string{reason},
		Timestamp:  lastTimestamp(view),
	}
}

func lastTimestamp(view View) (ts time.Time) {
	if n := len(view.Candles); n > 0 {
		ts = view.Candles[n-1].Timestamp
	}
	return ts
}
