package domain

import "time"

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

// Swing kind constants.
const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// SwingPoint is a local price extremum confirmed by symmetric
// look-around candles. Derived and immutable.
type SwingPoint struct {
	Kind      SwingKind
	Price     float64
	Index     int
	Timestamp time.Time
}
