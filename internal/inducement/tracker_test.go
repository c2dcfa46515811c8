package inducement

import (
	"testing"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/structure"
	"market-structure-lab/internal/swing"
)

func makeCandles(bars [][3]float64) []domain.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]domain.Candle, len(bars))
	for i, b := range bars {
		candles[i] = domain.Candle{
			Timestamp: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:      b[2],
			High:      b[0],
			Low:       b[1],
			Close:     b[2],
		}
	}
	return candles
}

// Downtrend after a bearish change of character at index 9; the lower
// high at index 11 (10.9) is the pullback extremum, swept by the wick
// at index 13.
var flipAndSweep = [][3]float64{
	{10.0, 9.0, 9.5},
	{11.0, 10.0, 10.5},
	{10.5, 9.8, 10.0},
	{11.5, 10.2, 10.9},
	{11.0, 10.0, 10.8},
	{12.5, 10.6, 12.2},
	{12.8, 11.8, 12.5},
	{12.2, 11.5, 11.8},
	{11.8, 10.9, 11.0},
	{11.4, 9.7, 9.8},
	{10.5, 10.05, 10.2},
	{10.9, 10.0, 10.4},
	{10.3, 9.4, 9.6},
	{11.0, 9.5, 10.0},
}

func analyze(t *testing.T, bars [][3]float64, cfg domain.Config) ([]domain.Candle, []domain.SwingPoint, []domain.StructuralEvent) {
	t.Helper()
	candles := makeCandles(bars)
	swings := swing.Detect(candles, cfg.SwingRadius)
	res := structure.Evaluate(candles, swings, cfg)
	return candles, swings, res.Events
}

func TestFind_PullbackAfterBreak(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.SwingRadius = 1

	candles, swings, events := analyze(t, flipAndSweep, cfg)

	idm := Find(candles, swings, events, cfg)
	if idm == nil {
		t.Fatal("no inducement found")
	}
	if idm.Kind != domain.SwingHigh {
		t.Errorf("inducement kind = %s, want HIGH after a bearish break", idm.Kind)
	}
	if idm.Index != 11 || idm.Level != 10.9 {
		t.Errorf("inducement at index %d level %.2f, want index 11 level 10.90", idm.Index, idm.Level)
	}
	if idm.EventIndex != 9 {
		t.Errorf("inducement event index = %d, want 9", idm.EventIndex)
	}
	if !idm.Swept {
		t.Error("inducement not marked swept despite the wick at index 13")
	}
}

func TestFind_NotSweptBeforeWick(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.SwingRadius = 1

	// Cut the history before the sweeping candle.
	candles, swings, events := analyze(t, flipAndSweep[:13], cfg)

	idm := Find(candles, swings, events, cfg)
	if idm == nil {
		t.Fatal("no inducement found")
	}
	if idm.Swept {
		t.Error("inducement marked swept before any candle traded through it")
	}
}

func TestFind_NoBreakNoInducement(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.SwingRadius = 1

	candles, swings, events := analyze(t, flipAndSweep[:5], cfg)

	if idm := Find(candles, swings, events, cfg); idm != nil {
		t.Errorf("inducement = %+v, want nil without a structural break", idm)
	}
}

func TestFind_LookbackWindowBounds(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.SwingRadius = 1
	cfg.InducementLookback = 1 // window ends before the pullback swing forms

	candles, swings, events := analyze(t, flipAndSweep, cfg)

	if idm := Find(candles, swings, events, cfg); idm != nil {
		t.Errorf("inducement = %+v, want nil outside the lookback window", idm)
	}
}
