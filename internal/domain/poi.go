package domain

import "time"

// Imbalance is a three-candle price gap (fair value gap). Mitigated is
// the only mutable field.
type Imbalance struct {
	Direction  Direction
	Top        float64
	Bottom     float64
	StartIndex int // index of the first candle of the triple
	EndIndex   int // index of the third candle of the triple
	Mitigated  bool
}

// Midpoint returns the center price of the zone.
func (z Imbalance) Midpoint() float64 {
	return (z.Top + z.Bottom) / 2
}

// OrderBlock is a candle preceding a strong displacement move, treated
// as a likely reaction zone on retest. Mitigated is the only mutable field.
type OrderBlock struct {
	Direction      Direction
	Top            float64
	Bottom         float64
	Open           float64
	Close          float64
	Index          int
	Timestamp      time.Time
	HasImbalance   bool
	SweptLiquidity bool
	Mitigated      bool
}

// Midpoint returns the center price of the block.
func (b OrderBlock) Midpoint() float64 {
	return (b.Top + b.Bottom) / 2
}

// POIKind discriminates point-of-interest variants.
type POIKind string

// POI kind constants.
const (
	POIImbalance  POIKind = "IMBALANCE"
	POIOrderBlock POIKind = "ORDER_BLOCK"
)

// POI is a tagged union over the two point-of-interest variants.
// Exactly one of Imbalance or OrderBlock is set, matching Kind.
type POI struct {
	Kind       POIKind
	Imbalance  *Imbalance
	OrderBlock *OrderBlock
}

// ImbalancePOI wraps an imbalance zone as a POI.
func ImbalancePOI(z *Imbalance) POI {
	return POI{Kind: POIImbalance, Imbalance: z}
}

// OrderBlockPOI wraps an order block as a POI.
func OrderBlockPOI(b *OrderBlock) POI {
	return POI{Kind: POIOrderBlock, OrderBlock: b}
}

// Direction returns the directional bias of the underlying zone.
func (p POI) Direction() Direction {
	switch p.Kind {
	case POIImbalance:
		return p.Imbalance.Direction
	case POIOrderBlock:
		return p.OrderBlock.Direction
	}
	return DirectionUndetermined
}

// Top returns the upper boundary of the underlying zone.
func (p POI) Top() float64 {
	if p.Kind == POIImbalance {
		return p.Imbalance.Top
	}
	return p.OrderBlock.Top
}

// Bottom returns the lower boundary of the underlying zone.
func (p POI) Bottom() float64 {
	if p.Kind == POIImbalance {
		return p.Imbalance.Bottom
	}
	return p.OrderBlock.Bottom
}

// Midpoint returns the center price of the underlying zone.
func (p POI) Midpoint() float64 {
	return (p.Top() + p.Bottom()) / 2
}

// Index returns the forming candle index of the underlying zone.
func (p POI) Index() int {
	if p.Kind == POIImbalance {
		return p.Imbalance.StartIndex
	}
	return p.OrderBlock.Index
}

// Mitigated reports whether the underlying zone has been mitigated.
func (p POI) Mitigated() bool {
	if p.Kind == POIImbalance {
		return p.Imbalance.Mitigated
	}
	return p.OrderBlock.Mitigated
}
