// Package reporting renders backtest results for human review.
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"market-structure-lab/internal/domain"
)

// WriteMarkdown renders a run as a markdown report: headline figures
// followed by the full trade ledger.
func WriteMarkdown(w io.Writer, res *domain.BacktestResult) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("# Backtest Report: %s\n\n", res.AssetID)
	p("Run `%s`\n\n", res.RunID)
	p("Period: %s to %s\n\n",
		res.PeriodStart.Format(time.RFC3339), res.PeriodEnd.Format(time.RFC3339))

	p("## Capital\n\n")
	p("| Metric | Value |\n|---|---|\n")
	p("| Initial capital | %s |\n", res.InitialCapital.StringFixed(2))
	p("| Final capital | %s |\n", res.FinalCapital.StringFixed(2))
	p("| Peak capital | %s |\n", res.PeakCapital.StringFixed(2))
	p("| Total PnL | %s |\n", res.TotalPnL.StringFixed(2))
	p("| Max drawdown | %s (%.2f%%) |\n\n", res.MaxDrawdown.StringFixed(2), res.MaxDrawdownPct)

	p("## Trades\n\n")
	p("| Metric | Value |\n|---|---|\n")
	p("| Attempted | %d |\n", res.TradesAttempted)
	p("| Executed | %d |\n", res.TradesExecuted)
	p("| Skipped | %d |\n", res.TradesSkipped)
	p("| Wins / losses | %d / %d |\n", res.Wins, res.Losses)
	p("| Win rate | %.1f%% |\n", res.WinRate*100)
	p("| Profit factor | %.2f |\n", res.ProfitFactor)
	p("| Avg win / loss (points) | %.5f / %.5f |\n\n", res.AvgWinPoints, res.AvgLossPoints)

	if len(res.Trades) > 0 {
		p("## Ledger\n\n")
		p("| # | Direction | Entry | Stop | Target | Exit | Reason | PnL |\n")
		p("|---|---|---|---|---|---|---|---|\n")
		for i, t := range res.Trades {
			if t.Skipped {
				p("| %d | %s | %.5f | %.5f | %.5f | - | %s | - |\n",
					i+1, t.Direction, t.Entry, t.StopLoss, t.TakeProfit, t.SkipReason)
				continue
			}
			p("| %d | %s | %.5f | %.5f | %.5f | %.5f | %s | %s |\n",
				i+1, t.Direction, t.Entry, t.StopLoss, t.TakeProfit,
				t.ExitPrice, t.ExitReason, t.PnLCurrency.StringFixed(2))
		}
		p("\n")
	}

	p("%s\n", res.Summary)
	return err
}

// WriteCSV renders the trade ledger as CSV, one row per trade.
func WriteCSV(w io.Writer, res *domain.BacktestResult) error {
	cw := csv.NewWriter(w)

	header := []string{
		"trade_id", "asset_id", "direction",
		"entry", "stop_loss", "take_profit",
		"entry_index", "entry_time", "exit_index", "exit_time", "exit_price", "exit_reason",
		"skipped", "skip_reason", "pnl_points", "pnl_currency",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, t := range res.Trades {
		row := []string{
			t.TradeID, t.AssetID, string(t.Direction),
			formatFloat(t.Entry), formatFloat(t.StopLoss), formatFloat(t.TakeProfit),
			strconv.Itoa(t.EntryIndex), t.EntryTime.Format(time.RFC3339),
			strconv.Itoa(t.ExitIndex), t.ExitTime.Format(time.RFC3339),
			formatFloat(t.ExitPrice), t.ExitReason,
			strconv.FormatBool(t.Skipped), t.SkipReason,
			formatFloat(t.PnLPoints), t.PnLCurrency.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
