package domain

import "time"

// Direction is the directional bias of a trend or event.
type Direction string

// Direction constants.
const (
	DirectionBullish      Direction = "BULLISH"
	DirectionBearish      Direction = "BEARISH"
	DirectionUndetermined Direction = "UNDETERMINED"
)

// Opposite returns the inverse direction. Undetermined maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case DirectionBullish:
		return DirectionBearish
	case DirectionBearish:
		return DirectionBullish
	default:
		return DirectionUndetermined
	}
}

// EventKind classifies structural events.
type EventKind string

// Event kind constants.
const (
	EventBreakOfStructure  EventKind = "BREAK_OF_STRUCTURE"
	EventChangeOfCharacter EventKind = "CHANGE_OF_CHARACTER"
	EventLiquiditySweep    EventKind = "LIQUIDITY_SWEEP"
)

// StructuralEvent is a single detected structure event. Produced once,
// never mutated, ordered by Index within an event list.
type StructuralEvent struct {
	Kind      EventKind
	Level     float64
	Index     int
	Timestamp time.Time
	Direction Direction
	Swing     SwingPoint // the referenced swing point
}

// IsBreak reports whether the event confirms structure (BOS or CHoCH)
// as opposed to a wick-only liquidity sweep.
func (e StructuralEvent) IsBreak() bool {
	return e.Kind == EventBreakOfStructure || e.Kind == EventChangeOfCharacter
}

// InducementPoint is the first opposing pullback extremum following a
// structural break. Swept is the only mutable field.
type InducementPoint struct {
	Level      float64
	Index      int
	Timestamp  time.Time
	Kind       SwingKind
	EventIndex int // candle index of the related structural event
	Swept      bool
}
