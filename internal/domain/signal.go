package domain

import "time"

// SignalKind classifies the outcome of one evaluation.
type SignalKind string

// Signal kind constants.
const (
	SignalBuy           SignalKind = "BUY"
	SignalSell          SignalKind = "SELL"
	SignalNeutral       SignalKind = "NEUTRAL"
	SignalAwaitingEntry SignalKind = "AWAITING_ENTRY"
	SignalInvalid       SignalKind = "INVALID"
)

// Executable reports whether the signal opens a position.
func (k SignalKind) Executable() bool {
	return k == SignalBuy || k == SignalSell
}

// Confidence is the tiered confidence attached to a signal.
type Confidence string

// Confidence constants.
const (
	ConfidenceHigh         Confidence = "HIGH"
	ConfidenceMedium       Confidence = "MEDIUM"
	ConfidenceLow          Confidence = "LOW"
	ConfidenceUndetermined Confidence = "UNDETERMINED"
)

// PendingSignal is the single-slot state carried across evaluations: a
// valid point of interest waiting for price to trade into it.
type PendingSignal struct {
	POI        POI
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	EventIndex int // candle index of the originating structural break
	Confidence Confidence
	CreatedAt  int // candle index at which the slot was filled
}

// TradeSignal is the read-only output of one evaluation.
type TradeSignal struct {
	SignalID   string
	AssetID    string
	Kind       SignalKind
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Confidence Confidence
	Session    string   // session context label, e.g. "LONDON_NY"
	Reasons    []string // justification trail, observability only
	Timestamp  time.Time
}
