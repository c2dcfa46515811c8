// Package analysis composes the per-stage detectors into one pipeline:
// candles in, a complete evaluation view out.
package analysis

import (
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/indicator"
	"market-structure-lab/internal/inducement"
	"market-structure-lab/internal/poi"
	"market-structure-lab/internal/signal"
	"market-structure-lab/internal/structure"
	"market-structure-lab/internal/swing"
)

// BuildView runs every detection stage over the full candle history and
// assembles the evaluation view. The pipeline is a pure function of its
// inputs: same candles and config, same view.
func BuildView(assetID string, candles []domain.Candle, cfg domain.Config) signal.View {
	swings := swing.Detect(candles, cfg.SwingRadius)
	atr := indicator.ATR(candles, cfg.ATRPeriod)
	structRes := structure.Evaluate(candles, swings, cfg)
	idm := inducement.Find(candles, swings, structRes.Events, cfg)
	zones := poi.DetectImbalances(candles, atr, cfg)
	blocks := poi.DetectOrderBlocks(candles, swings, structRes.Events, zones, cfg)

	return signal.View{
		AssetID:    assetID,
		Candles:    candles,
		ATR:        atr,
		Structure:  structRes,
		Inducement: idm,
		POIs:       poi.Collect(zones, blocks),
	}
}

// Evaluate is the one-shot entry point: build the view for the latest
// candle and run a single stateless evaluation (empty pending slot).
func Evaluate(assetID string, candles []domain.Candle, cfg domain.Config) domain.TradeSignal {
	view := BuildView(assetID, candles, cfg)
	_, sig := signal.Evaluate(signal.State{}, view, cfg)
	return sig
}
