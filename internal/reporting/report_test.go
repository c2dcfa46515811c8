package reporting

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"market-structure-lab/internal/domain"
)

func sampleResult() *domain.BacktestResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &domain.BacktestResult{
		RunID:           "run-1",
		AssetID:         "btc-15m",
		InitialCapital:  decimal.RequireFromString("1000"),
		FinalCapital:    decimal.RequireFromString("1025"),
		PeakCapital:     decimal.RequireFromString("1050"),
		MaxDrawdown:     decimal.RequireFromString("25"),
		MaxDrawdownPct:  2.38,
		TotalPnL:        decimal.RequireFromString("25"),
		TradesAttempted: 2,
		TradesExecuted:  1,
		TradesSkipped:   1,
		Wins:            1,
		WinRate:         1,
		PeriodStart:     start,
		PeriodEnd:       start.Add(24 * time.Hour),
		Summary:         "btc-15m: 1 trades (1 wins, 0 losses, 1 skipped)",
		Trades: []domain.BacktestTrade{
			{
				TradeID:     "trade-1",
				AssetID:     "btc-15m",
				Direction:   domain.DirectionBullish,
				Entry:       100,
				StopLoss:    95,
				TakeProfit:  110,
				EntryTime:   start,
				ExitTime:    start.Add(3 * time.Hour),
				ExitPrice:   110,
				ExitReason:  domain.ExitReasonTakeProfit,
				PnLPoints:   10,
				PnLCurrency: decimal.RequireFromString("50"),
			},
			{
				TradeID:    "trade-2",
				AssetID:    "btc-15m",
				Direction:  domain.DirectionBullish,
				Entry:      101,
				EntryTime:  start.Add(6 * time.Hour),
				ExitTime:   start.Add(6 * time.Hour),
				Skipped:    true,
				SkipReason: domain.SkipReasonInsufficientCapital,
			},
		},
	}
}

func TestWriteMarkdown(t *testing.T) {
	var sb strings.Builder

	if err := WriteMarkdown(&sb, sampleResult()); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		"# Backtest Report: btc-15m",
		"| Initial capital | 1000.00 |",
		"| Final capital | 1025.00 |",
		"| Max drawdown | 25.00 (2.38%) |",
		"TAKE_PROFIT",
		"INSUFFICIENT_CAPITAL",
		"btc-15m: 1 trades",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder

	if err := WriteCSV(&sb, sampleResult()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 trades", len(rows))
	}
	if rows[0][0] != "trade_id" || rows[0][15] != "pnl_currency" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][15] != "50" {
		t.Errorf("pnl cell = %q, want exact decimal string 50", rows[1][15])
	}
	if rows[2][12] != "true" {
		t.Errorf("skipped cell = %q, want true", rows[2][12])
	}
}
