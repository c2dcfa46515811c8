package poi

import (
	"testing"

	"market-structure-lab/internal/domain"
)

func TestDetectOrderBlocks_ImbalanceSeed(t *testing.T) {
	candles := makeCandles([][4]float64{
		{101, 102, 99, 100},      // bearish candidate
		{100, 106, 99.5, 105.5},  // displacement closes above the high
	})
	zones := []domain.Imbalance{{
		Direction:  domain.DirectionBullish,
		Top:        104,
		Bottom:     102,
		StartIndex: 0,
		EndIndex:   2,
	}}

	blocks := DetectOrderBlocks(candles, nil, nil, zones, domain.DefaultConfig())

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks (%+v), want 1", len(blocks), blocks)
	}
	b := blocks[0]
	if b.Direction != domain.DirectionBullish || b.Index != 0 {
		t.Errorf("block = %s at %d, want bullish at 0", b.Direction, b.Index)
	}
	if b.Top != 102 || b.Bottom != 99 {
		t.Errorf("block zone = [%.2f, %.2f], want [99.00, 102.00]", b.Bottom, b.Top)
	}
	if !b.HasImbalance || b.SweptLiquidity {
		t.Errorf("origins = imbalance:%v swept:%v, want imbalance only", b.HasImbalance, b.SweptLiquidity)
	}
}

func TestDetectOrderBlocks_SweptPriorSwing(t *testing.T) {
	filler := [4]float64{100, 101, 99.8, 100.5}
	candles := makeCandles([][4]float64{
		filler, filler, filler, filler,
		{102, 103, 99.5, 101},     // wick through the swing low at 100, close back above
		{103, 106, 102.5, 105},    // confirmation
	})
	swings := []domain.SwingPoint{{Kind: domain.SwingLow, Index: 1, Price: 100}}

	blocks := DetectOrderBlocks(candles, swings, nil, nil, domain.DefaultConfig())

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks (%+v), want 1", len(blocks), blocks)
	}
	b := blocks[0]
	if b.Index != 4 || !b.SweptLiquidity || b.HasImbalance {
		t.Errorf("block = %+v, want swept-liquidity origin at index 4", b)
	}
	if b.Mitigated {
		t.Error("block marked mitigated with no candles after confirmation")
	}
}

func TestDetectOrderBlocks_PrecedesBreak(t *testing.T) {
	candles := makeCandles([][4]float64{
		{100, 101, 99.8, 100.5},
		{102, 103, 100, 101},    // bearish candidate
		{101, 105, 100.5, 104},  // confirmation
	})
	events := []domain.StructuralEvent{{
		Kind:      domain.EventBreakOfStructure,
		Direction: domain.DirectionBullish,
		Index:     3,
	}}

	blocks := DetectOrderBlocks(candles, nil, events, nil, domain.DefaultConfig())

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks (%+v), want 1", len(blocks), blocks)
	}
	b := blocks[0]
	if b.Index != 1 || b.HasImbalance || b.SweptLiquidity {
		t.Errorf("block = %+v, want break-origin block at index 1", b)
	}
}

func TestDetectOrderBlocks_BreakBeyondHorizon(t *testing.T) {
	filler := [4]float64{100, 101, 99.8, 100.5}
	candles := makeCandles([][4]float64{
		filler,
		{102, 103, 100, 101},
		{101, 105, 100.5, 104},
		filler, filler, filler,
	})
	// Break lands past the horizon of the candidate at index 1.
	events := []domain.StructuralEvent{{
		Kind:      domain.EventBreakOfStructure,
		Direction: domain.DirectionBullish,
		Index:     5,
	}}

	if blocks := DetectOrderBlocks(candles, nil, events, nil, domain.DefaultConfig()); len(blocks) != 0 {
		t.Errorf("blocks = %+v, want none with the break outside the horizon", blocks)
	}
}

func TestDetectOrderBlocks_ConfirmationRequired(t *testing.T) {
	candles := makeCandles([][4]float64{
		{101, 102, 99, 100},       // bearish candidate
		{100, 101.5, 99.5, 101},   // next candle fails to close above 102
	})
	zones := []domain.Imbalance{{
		Direction:  domain.DirectionBullish,
		Top:        104,
		Bottom:     102,
		StartIndex: 0,
		EndIndex:   2,
	}}

	if blocks := DetectOrderBlocks(candles, nil, nil, zones, domain.DefaultConfig()); len(blocks) != 0 {
		t.Errorf("blocks = %+v, want none without displacement confirmation", blocks)
	}
}

func TestDetectOrderBlocks_AdjacentCollapse(t *testing.T) {
	candles := makeCandles([][4]float64{
		{100, 101, 99.8, 100.5},
		{102, 103, 100, 101},        // first candidate
		{105, 105.5, 103.5, 104},    // bearish too, confirms the first
		{105, 107, 104.5, 106.5},    // confirms the second
	})
	events := []domain.StructuralEvent{{
		Kind:      domain.EventBreakOfStructure,
		Direction: domain.DirectionBullish,
		Index:     4,
	}}

	blocks := DetectOrderBlocks(candles, nil, events, nil, domain.DefaultConfig())

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks (%+v), want adjacent candidates collapsed to 1", len(blocks), blocks)
	}
	if blocks[0].Index != 1 {
		t.Errorf("surviving block at index %d, want the earlier candidate at 1", blocks[0].Index)
	}
}

func TestBlockMitigation_SkipsConfirmationCandle(t *testing.T) {
	candles := makeCandles([][4]float64{
		{102, 103, 100, 101},       // candidate, zone [100, 103], midpoint 101.5
		{101, 105, 100.5, 104.5},   // confirmation wicks to 100.5 but does not count
		{104, 104.5, 101, 102},     // first eligible touch of the midpoint
	})
	events := []domain.StructuralEvent{{
		Kind:      domain.EventBreakOfStructure,
		Direction: domain.DirectionBullish,
		Index:     2,
	}}
	cfg := domain.DefaultConfig()

	blocks := DetectOrderBlocks(candles[:2], nil, events, nil, cfg)
	if len(blocks) != 1 || blocks[0].Mitigated {
		t.Fatalf("blocks = %+v, want one unmitigated block before the retest", blocks)
	}

	blocks = DetectOrderBlocks(candles, nil, events, nil, cfg)
	if len(blocks) != 1 || !blocks[0].Mitigated {
		t.Fatalf("blocks = %+v, want the block mitigated by the retest at index 2", blocks)
	}
}

func TestCollect_OrdersByFormingIndex(t *testing.T) {
	zones := []domain.Imbalance{
		{Direction: domain.DirectionBullish, StartIndex: 0},
		{Direction: domain.DirectionBearish, StartIndex: 5},
	}
	blocks := []domain.OrderBlock{
		{Direction: domain.DirectionBullish, Index: 2},
		{Direction: domain.DirectionBearish, Index: 7},
	}

	pois := Collect(zones, blocks)

	if len(pois) != 4 {
		t.Fatalf("got %d POIs, want 4", len(pois))
	}
	wantKinds := []domain.POIKind{domain.POIImbalance, domain.POIOrderBlock, domain.POIImbalance, domain.POIOrderBlock}
	wantIndexes := []int{0, 2, 5, 7}
	for i, p := range pois {
		if p.Kind != wantKinds[i] || p.Index() != wantIndexes[i] {
			t.Errorf("poi %d = %s at %d, want %s at %d", i, p.Kind, p.Index(), wantKinds[i], wantIndexes[i])
		}
	}
}
