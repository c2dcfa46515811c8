package backtest

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"market-structure-lab/internal/domain"
)

// finalize fills the aggregate fields of a completed run from its trade
// ledger and capital curve.
func finalize(res *domain.BacktestResult, led *ledger) {
	res.FinalCapital = led.capital
	res.PeakCapital = led.peak
	res.MaxDrawdown = led.maxDrawdown
	res.MaxDrawdownPct = led.maxDrawdownPct
	res.TotalPnL = led.capital.Sub(res.InitialCapital)

	grossWin := decimal.Zero
	grossLoss := decimal.Zero
	var winPoints, lossPoints float64

	for _, t := range res.Trades {
		if t.Skipped {
			continue
		}
		res.TotalPnLPoints += t.PnLPoints
		if t.Won() {
			res.Wins++
			grossWin = grossWin.Add(t.PnLCurrency)
			winPoints += t.PnLPoints
		} else if t.PnLCurrency.IsNegative() {
			res.Losses++
			grossLoss = grossLoss.Add(t.PnLCurrency.Abs())
			lossPoints += t.PnLPoints
		}
	}

	if res.TradesExecuted > 0 {
		res.WinRate = float64(res.Wins) / float64(res.TradesExecuted)
	}
	if res.Wins > 0 {
		res.AvgWinPoints = winPoints / float64(res.Wins)
	}
	if res.Losses > 0 {
		res.AvgLossPoints = lossPoints / float64(res.Losses)
	}
	switch {
	case grossLoss.IsPositive():
		res.ProfitFactor, _ = grossWin.Div(grossLoss).Float64()
	case grossWin.IsPositive():
		res.ProfitFactor = math.Inf(1)
	}

	res.Summary = summarize(res)
}

// summarize renders the one-line human digest attached to every run.
func summarize(res *domain.BacktestResult) string {
	return fmt.Sprintf(
		"%s: %d trades (%d wins, %d losses, %d skipped), win rate %.1f%%, capital %s -> %s, max drawdown %s (%.1f%%)",
		res.AssetID,
		res.TradesExecuted, res.Wins, res.Losses, res.TradesSkipped,
		res.WinRate*100,
		res.InitialCapital.StringFixed(2), res.FinalCapital.StringFixed(2),
		res.MaxDrawdown.StringFixed(2), res.MaxDrawdownPct,
	)
}
