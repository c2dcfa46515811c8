// Package backtest simulates the signal pipeline walk-forward over
// historical candles with exact decimal capital bookkeeping.
package backtest

import (
	"math"

	"github.com/shopspring/decimal"

	"market-structure-lab/internal/analysis"
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/idhash"
	"market-structure-lab/internal/signal"
)

// Simulator replays history one candle at a time. At each step the full
// pipeline is recomputed over the prefix ending at that candle, so no
// evaluation ever sees a bar that had not closed yet.
type Simulator struct {
	cfg domain.Config
}

// New returns a simulator for the given configuration.
func New(cfg domain.Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run simulates the full candle history for one asset and returns the
// completed result. Returns ErrInsufficientData when the history does
// not extend past the warm-up buffer.
func (s *Simulator) Run(asset domain.Asset, candles []domain.Candle) (*domain.BacktestResult, error) {
	if len(candles) <= s.cfg.WarmupBuffer {
		return nil, domain.ErrInsufficientData
	}

	startMs := candles[0].Timestamp.UnixMilli()
	endMs := candles[len(candles)-1].Timestamp.UnixMilli()
	runID := idhash.ComputeRunID(asset.ID, startMs, endMs, s.cfg.InitialCapital, s.cfg.RiskPerTrade)

	initial := decimal.NewFromFloat(s.cfg.InitialCapital)
	risk := decimal.NewFromFloat(s.cfg.RiskPerTrade)
	led := newLedger(initial)

	res := &domain.BacktestResult{
		RunID:          runID,
		AssetID:        asset.ID,
		InitialCapital: initial,
		PeriodStart:    candles[0].Timestamp,
		PeriodEnd:      candles[len(candles)-1].Timestamp,
	}

	st := signal.State{}
	for i := s.cfg.WarmupBuffer; i < len(candles); i++ {
		view := analysis.BuildView(asset.ID, candles[:i+1], s.cfg)

		var sig domain.TradeSignal
		st, sig = signal.Evaluate(st, view, s.cfg)
		if !sig.Kind.Executable() {
			continue
		}

		res.TradesAttempted++
		dir := domain.DirectionBullish
		if sig.Kind == domain.SignalSell {
			dir = domain.DirectionBearish
		}

		if !led.canRisk(risk) {
			res.Trades = append(res.Trades, domain.BacktestTrade{
				TradeID:    idhash.ComputeTradeID(runID, asset.ID, i, string(dir)),
				AssetID:    asset.ID,
				Direction:  dir,
				Entry:      sig.Entry,
				StopLoss:   sig.StopLoss,
				TakeProfit: sig.TakeProfit,
				EntryIndex: i,
				EntryTime:  candles[i].Timestamp,
				Skipped:    true,
				SkipReason: domain.SkipReasonInsufficientCapital,
			})
			res.TradesSkipped++
			continue
		}

		trade := s.resolve(runID, asset.ID, dir, sig, i, candles, risk)
		led.apply(trade.PnLCurrency)
		res.Trades = append(res.Trades, trade)
		res.TradesExecuted++

		// One position at a time: skip to the exit candle.
		i = trade.ExitIndex
		st = signal.State{}
	}

	finalize(res, led)
	return res, nil
}

// resolve scans forward from the entry for the first candle touching
// the stop or the target. A candle spanning both resolves by the
// configured priority. History running out closes at the final close
// with a pro-rated result.
func (s *Simulator) resolve(runID, assetID string, dir domain.Direction, sig domain.TradeSignal, entryIdx int, candles []domain.Candle, risk decimal.Decimal) domain.BacktestTrade {
	t := domain.BacktestTrade{
		TradeID:    idhash.ComputeTradeID(runID, assetID, entryIdx, string(dir)),
		AssetID:    assetID,
		Direction:  dir,
		Entry:      sig.Entry,
		StopLoss:   sig.StopLoss,
		TakeProfit: sig.TakeProfit,
		EntryIndex: entryIdx,
		EntryTime:  candles[entryIdx].Timestamp,
	}

	for j := entryIdx + 1; j < len(candles); j++ {
		c := candles[j]

		var hitStop, hitTarget bool
		if dir == domain.DirectionBullish {
			hitStop = c.Low <= sig.StopLoss
			hitTarget = c.High >= sig.TakeProfit
		} else {
			hitStop = c.High >= sig.StopLoss
			hitTarget = c.Low <= sig.TakeProfit
		}
		if !hitStop && !hitTarget {
			continue
		}
		if hitStop && hitTarget && s.cfg.TakeProfitPriority {
			hitStop = false
		}

		t.ExitIndex = j
		t.ExitTime = c.Timestamp
		if hitStop {
			t.ExitPrice = sig.StopLoss
			t.ExitReason = domain.ExitReasonStopLoss
			t.PnLPoints = points(dir, sig.Entry, sig.StopLoss)
			t.PnLCurrency = risk.Neg()
		} else {
			t.ExitPrice = sig.TakeProfit
			t.ExitReason = domain.ExitReasonTakeProfit
			t.PnLPoints = points(dir, sig.Entry, sig.TakeProfit)
			t.PnLCurrency = risk.Mul(decimal.NewFromFloat(s.cfg.MinRiskReward))
		}
		return t
	}

	// End of data: close at the final candle, pro-rated by how far the
	// open position moved relative to one unit of risk.
	last := len(candles) - 1
	exit := candles[last].Close
	t.ExitIndex = last
	t.ExitTime = candles[last].Timestamp
	t.ExitPrice = exit
	t.ExitReason = domain.ExitReasonEndOfData
	t.PnLPoints = points(dir, sig.Entry, exit)

	riskPoints := math.Abs(sig.Entry - sig.StopLoss)
	multiple := 0.0
	if riskPoints > 0 {
		multiple = t.PnLPoints / riskPoints
	}
	multiple = math.Max(-1, math.Min(multiple, s.cfg.MinRiskReward))
	t.PnLCurrency = risk.Mul(decimal.NewFromFloat(multiple))
	return t
}

// points is the signed price-point result for a direction.
func points(dir domain.Direction, entry, exit float64) float64 {
	if dir == domain.DirectionBullish {
		return exit - entry
	}
	return entry - exit
}
