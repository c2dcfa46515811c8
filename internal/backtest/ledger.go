package backtest

import "github.com/shopspring/decimal"

// ledger tracks capital with exact decimal arithmetic. Every realized
// PnL passes through apply; peak and drawdown update on the same call
// so they can never disagree with the capital curve.
type ledger struct {
	capital        decimal.Decimal
	peak           decimal.Decimal
	maxDrawdown    decimal.Decimal
	maxDrawdownPct float64
}

func newLedger(initial decimal.Decimal) *ledger {
	return &ledger{
		capital:     initial,
		peak:        initial,
		maxDrawdown: decimal.Zero,
	}
}

func (l *ledger) apply(pnl decimal.Decimal) {
	l.capital = l.capital.Add(pnl)
	if l.capital.GreaterThan(l.peak) {
		l.peak = l.capital
	}
	dd := l.peak.Sub(l.capital)
	if dd.GreaterThan(l.maxDrawdown) {
		l.maxDrawdown = dd
		if l.peak.IsPositive() {
			pct, _ := dd.Div(l.peak).Mul(decimal.NewFromInt(100)).Float64()
			l.maxDrawdownPct = pct
		}
	}
}

// canRisk reports whether the ledger holds at least the requested risk.
func (l *ledger) canRisk(risk decimal.Decimal) bool {
	return l.capital.GreaterThanOrEqual(risk)
}
