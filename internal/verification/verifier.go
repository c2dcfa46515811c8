// Package verification checks that the pipeline never uses information
// from candles beyond the one being evaluated. A pipeline that peeks
// ahead produces different output when the future is cut off; rerunning
// on truncated history and comparing outputs exposes exactly that.
package verification

import (
	"fmt"
	"math"

	"market-structure-lab/internal/analysis"
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/signal"
)

// FloatTolerance is the maximum accepted absolute difference for float
// field comparisons.
const FloatTolerance = 1e-7

// Divergence records one field disagreement at a checkpoint.
type Divergence struct {
	CandleIndex int
	Field       string
	Full        string
	Truncated   string
}

func (d Divergence) String() string {
	return fmt.Sprintf("index %d field %s: full=%s truncated=%s",
		d.CandleIndex, d.Field, d.Full, d.Truncated)
}

// Report is the outcome of one verification run.
type Report struct {
	AssetID     string
	StepsWalked int
	Checkpoints int
	Divergences []Divergence
}

// Causal reports whether no divergence was found.
func (r Report) Causal() bool {
	return len(r.Divergences) == 0
}

// VerifyCausality walks the full history once, recording the signal at
// every checkpoint, then reruns the walk on each truncated prefix and
// compares the outputs field by field.
func VerifyCausality(assetID string, candles []domain.Candle, cfg domain.Config, checkpoints []int) (Report, error) {
	report := Report{AssetID: assetID, Checkpoints: len(checkpoints)}
	if len(candles) <= cfg.WarmupBuffer {
		return report, domain.ErrInsufficientData
	}

	wanted := make(map[int]bool, len(checkpoints))
	for _, c := range checkpoints {
		if c <= cfg.WarmupBuffer || c >= len(candles) {
			return report, fmt.Errorf("checkpoint %d out of range (%d, %d)", c, cfg.WarmupBuffer, len(candles))
		}
		wanted[c] = true
	}

	// Full walk, carrying state exactly like the simulator does.
	fullSignals := make(map[int]domain.TradeSignal, len(checkpoints))
	st := signal.State{}
	for i := cfg.WarmupBuffer; i < len(candles); i++ {
		view := analysis.BuildView(assetID, candles[:i+1], cfg)
		var sig domain.TradeSignal
		st, sig = signal.Evaluate(st, view, cfg)
		report.StepsWalked++
		if wanted[i] {
			fullSignals[i] = sig
		}
	}

	// Truncated reruns: a fresh walk that has never seen candle c+1.
	for _, c := range checkpoints {
		truncated := rerun(assetID, candles[:c+1], cfg)
		report.Divergences = append(report.Divergences,
			compareSignals(c, fullSignals[c], truncated)...)
	}
	return report, nil
}

// rerun walks a truncated history from scratch and returns the final signal.
func rerun(assetID string, candles []domain.Candle, cfg domain.Config) domain.TradeSignal {
	st := signal.State{}
	var sig domain.TradeSignal
	for i := cfg.WarmupBuffer; i < len(candles); i++ {
		view := analysis.BuildView(assetID, candles[:i+1], cfg)
		st, sig = signal.Evaluate(st, view, cfg)
	}
	return sig
}

// compareSignals diffs the decision-relevant fields of two signals.
func compareSignals(index int, full, truncated domain.TradeSignal) []Divergence {
	var divs []Divergence

	if full.Kind != truncated.Kind {
		divs = append(divs, Divergence{
			CandleIndex: index, Field: "kind",
			Full: string(full.Kind), Truncated: string(truncated.Kind),
		})
	}
	if full.Confidence != truncated.Confidence {
		divs = append(divs, Divergence{
			CandleIndex: index, Field: "confidence",
			Full: string(full.Confidence), Truncated: string(truncated.Confidence),
		})
	}
	divs = append(divs, compareFloat(index, "entry", full.Entry, truncated.Entry)...)
	divs = append(divs, compareFloat(index, "stop_loss", full.StopLoss, truncated.StopLoss)...)
	divs = append(divs, compareFloat(index, "take_profit", full.TakeProfit, truncated.TakeProfit)...)
	return divs
}

func compareFloat(index int, field string, full, truncated float64) []Divergence {
	if math.Abs(full-truncated) <= FloatTolerance {
		return nil
	}
	return []Divergence{{
		CandleIndex: index, Field: field,
		Full:      fmt.Sprintf("%.10f", full),
		Truncated: fmt.Sprintf("%.10f", truncated),
	}}
}
