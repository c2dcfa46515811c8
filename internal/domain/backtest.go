package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade exit reason codes.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonEndOfData  = "END_OF_DATA"
)

// Trade skip reason codes.
const (
	SkipReasonInsufficientCapital = "INSUFFICIENT_CAPITAL"
)

// BacktestTrade is one entry in the append-only trade ledger.
type BacktestTrade struct {
	TradeID    string
	AssetID    string
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	EntryIndex int
	EntryTime  time.Time
	ExitIndex  int
	ExitTime   time.Time
	ExitPrice  float64
	ExitReason string

	// Skipped trades carry a reason and do not affect capital.
	Skipped    bool
	SkipReason string

	PnLPoints   float64         // price-point result
	PnLCurrency decimal.Decimal // realized currency result
}

// Won reports whether the trade closed with positive currency PnL.
func (t BacktestTrade) Won() bool {
	return !t.Skipped && t.PnLCurrency.IsPositive()
}

// BacktestResult aggregates one simulation run. Owned exclusively by the
// simulator for the duration of the run; read-only afterwards.
type BacktestResult struct {
	RunID   string
	AssetID string

	InitialCapital decimal.Decimal
	FinalCapital   decimal.Decimal
	PeakCapital    decimal.Decimal
	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct float64

	TradesAttempted int
	TradesExecuted  int
	TradesSkipped   int
	Wins            int
	Losses          int
	WinRate         float64
	ProfitFactor    float64

	AvgWinPoints   float64
	AvgLossPoints  float64
	TotalPnLPoints float64
	TotalPnL       decimal.Decimal

	PeriodStart time.Time
	PeriodEnd   time.Time
	Summary     string

	Trades []BacktestTrade
}
