package poi

import (
	"testing"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/indicator"
)

func makeCandles(bars [][4]float64) []domain.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, len(bars))
	for i, b := range bars {
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      b[0],
			High:      b[1],
			Low:       b[2],
			Close:     b[3],
		}
	}
	return candles
}

func atrWith(n int, values map[int]float64) indicator.Series {
	s := indicator.NewSeries(n)
	for i, v := range values {
		s.Set(i, v)
	}
	return s
}

func TestDetectImbalances_BullishGap(t *testing.T) {
	// First candle tops at 100, third bottoms at 103: a 3-point gap
	// against an ATR of 1.0 clears the 0.15 size gate.
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 104, 99.5, 103.5},
		{103.5, 105, 103, 104.5},
	})
	atr := atrWith(len(candles), map[int]float64{2: 1.0})

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 {
		t.Fatalf("got %d zones (%+v), want 1", len(zones), zones)
	}
	z := zones[0]
	if z.Direction != domain.DirectionBullish {
		t.Errorf("direction = %s, want BULLISH", z.Direction)
	}
	if z.Bottom != 100 || z.Top != 103 {
		t.Errorf("zone = [%.2f, %.2f], want [100.00, 103.00]", z.Bottom, z.Top)
	}
	if z.StartIndex != 0 || z.EndIndex != 2 {
		t.Errorf("zone spans [%d, %d], want [0, 2]", z.StartIndex, z.EndIndex)
	}
	if z.Mitigated {
		t.Error("zone marked mitigated with no later candles")
	}
}

func TestDetectImbalances_GapBelowThreshold(t *testing.T) {
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 101, 99.5, 100.5},
		{100.4, 101, 100.2, 100.8},
	})
	// Gap of 0.2 against an ATR of 10: below the 1.5 threshold.
	atr := atrWith(len(candles), map[int]float64{2: 10.0})

	if zones := DetectImbalances(candles, atr, domain.DefaultConfig()); len(zones) != 0 {
		t.Errorf("zones = %+v, want none below the size gate", zones)
	}
}

func TestDetectImbalances_UndefinedATRWaivesGate(t *testing.T) {
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 101, 99.5, 100.5},
		{100.4, 101, 100.2, 100.8},
	})
	atr := atrWith(len(candles), nil)

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 {
		t.Fatalf("got %d zones, want 1 while the ATR is warming up", len(zones))
	}
}

func TestImbalanceMitigation_MidpointTouch(t *testing.T) {
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 104, 99.5, 103.5},
		{103.5, 105, 103, 104.5},
		// Wick to the midpoint (101.5), close back above the bottom.
		{104, 104.5, 101.4, 102.5},
	})
	atr := atrWith(len(candles), map[int]float64{2: 1.0, 3: 1.0})

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 || !zones[0].Mitigated {
		t.Fatalf("zones = %+v, want one mitigated zone", zones)
	}
}

func TestImbalanceMitigation_ShallowTouchDoesNotCount(t *testing.T) {
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 104, 99.5, 103.5},
		{103.5, 105, 103, 104.5},
		// Wick into the zone but above the midpoint.
		{104, 104.5, 102.0, 103.2},
	})
	atr := atrWith(len(candles), map[int]float64{2: 1.0, 3: 1.0})

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 || zones[0].Mitigated {
		t.Fatalf("zones = %+v, want one unmitigated zone", zones)
	}
}

func TestImbalanceMitigation_FullSweep(t *testing.T) {
	candles := makeCandles([][4]float64{
		{99, 100, 98, 99.5},
		{100, 104, 99.5, 103.5},
		{103.5, 105, 103, 104.5},
		// Trades through the far edge entirely.
		{104, 104.5, 99.0, 99.5},
	})
	atr := atrWith(len(candles), map[int]float64{2: 1.0, 3: 1.0})

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 || !zones[0].Mitigated {
		t.Fatalf("zones = %+v, want one mitigated zone after a full sweep", zones)
	}
}

func TestDetectImbalances_BearishGap(t *testing.T) {
	candles := makeCandles([][4]float64{
		{105, 106, 104, 104.5},
		{104, 104.5, 100.5, 101},
		{101, 101.5, 99, 99.5},
	})
	atr := atrWith(len(candles), map[int]float64{2: 1.0})

	zones := DetectImbalances(candles, atr, domain.DefaultConfig())

	if len(zones) != 1 {
		t.Fatalf("got %d zones (%+v), want 1", len(zones), zones)
	}
	z := zones[0]
	if z.Direction != domain.DirectionBearish {
		t.Errorf("direction = %s, want BEARISH", z.Direction)
	}
	if z.Bottom != 101.5 || z.Top != 104 {
		t.Errorf("zone = [%.2f, %.2f], want [101.50, 104.00]", z.Bottom, z.Top)
	}
}
