package domain

import "fmt"

// Config is the full tuning surface of the analysis pipeline. It is
// constructed once and threaded through every component call; no
// component reads process-wide state.
type Config struct {
	// Swing detection
	SwingRadius int // symmetric look-around window radius

	// Market structure
	StructureSeedSwings int // swings inspected to seed the trend
	SweepDedupWindow    int // candles a swept swing stays retired; 0 = until the next swing of the same kind

	// Inducement
	InducementLookback int // candles after a break scanned for the pullback extremum

	// Points of interest
	MinGapFactor      float64 // minimum imbalance size as an ATR factor
	OrderBlockHorizon int     // max candles between an order block and its break

	// Signal construction
	ATRPeriod            int
	SLMultiplier         float64 // stop-loss ATR multiplier
	SLBufferFactor       float64 // fixed stop buffer as a fraction of entry price
	MinRiskReward        float64
	MaxPOIDistanceFactor float64 // max inducement-to-POI distance as an ATR factor
	OvershootATRFactor   float64 // pending invalidation overshoot as an ATR factor

	// Session windows (UTC hours, [start, end))
	SessionStartHour int
	SessionEndHour   int
	SessionLabel     string

	// Backtesting
	InitialCapital     float64
	RiskPerTrade       float64
	BacktestDays       int
	WarmupBuffer       int  // indicator warm-up candles before the first evaluated step
	TakeProfitPriority bool // same-candle tie-break; false = stop-loss first (conservative)
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SwingRadius:         2,
		StructureSeedSwings: 3,
		SweepDedupWindow:    0,
		InducementLookback:  15,
		MinGapFactor:        0.15,
		OrderBlockHorizon:   3,

		ATRPeriod:            14,
		SLMultiplier:         0.5,
		SLBufferFactor:       0.0005,
		MinRiskReward:        2.0,
		MaxPOIDistanceFactor: 3.0,
		OvershootATRFactor:   0.5,

		SessionStartHour: 12,
		SessionEndHour:   16,
		SessionLabel:     "LONDON_NY",

		InitialCapital:     1000,
		RiskPerTrade:       25,
		BacktestDays:       30,
		WarmupBuffer:       50,
		TakeProfitPriority: false,
	}
}

// Validate checks internal consistency of the configuration.
func (c Config) Validate() error {
	if c.SwingRadius < 1 {
		return fmt.Errorf("swing radius must be >= 1, got %d", c.SwingRadius)
	}
	if c.ATRPeriod < 1 {
		return fmt.Errorf("atr period must be >= 1, got %d", c.ATRPeriod)
	}
	if c.InducementLookback < 1 {
		return fmt.Errorf("inducement lookback must be >= 1, got %d", c.InducementLookback)
	}
	if c.MinRiskReward <= 0 {
		return fmt.Errorf("min risk/reward must be positive, got %f", c.MinRiskReward)
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %f", c.InitialCapital)
	}
	if c.RiskPerTrade <= 0 {
		return fmt.Errorf("risk per trade must be positive, got %f", c.RiskPerTrade)
	}
	if c.BacktestDays < 1 {
		return fmt.Errorf("backtest days must be >= 1, got %d", c.BacktestDays)
	}
	if c.SessionStartHour < 0 || c.SessionStartHour > 23 || c.SessionEndHour < 0 || c.SessionEndHour > 24 {
		return fmt.Errorf("session hours out of range: [%d, %d)", c.SessionStartHour, c.SessionEndHour)
	}
	return nil
}

// InSession reports whether the given UTC hour falls inside the
// configured high-liquidity window.
func (c Config) InSession(hourUTC int) bool {
	if c.SessionStartHour <= c.SessionEndHour {
		return hourUTC >= c.SessionStartHour && hourUTC < c.SessionEndHour
	}
	// Window wraps midnight.
	return hourUTC >= c.SessionStartHour || hourUTC < c.SessionEndHour
}
