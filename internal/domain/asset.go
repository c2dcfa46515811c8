package domain

import (
	"fmt"
	"time"
)

// Asset describes a tradable instrument known to the catalog.
type Asset struct {
	ID          string
	Symbol      string        // provider symbol, e.g. "BTCUSDT"
	Exchange    string        // e.g. "binance"
	BarInterval time.Duration // fixed bar duration, e.g. 15m
}

// BarsPerDay returns how many bars of this asset cover one day.
func (a Asset) BarsPerDay() int {
	if a.BarInterval <= 0 {
		return 0
	}
	return int(24 * time.Hour / a.BarInterval)
}

// IntervalLabel renders the bar interval in venue notation: "15m",
// "1h", "1d".
func (a Asset) IntervalLabel() string {
	d := a.BarInterval
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}

// ParseInterval parses venue interval notation back to a duration.
func ParseInterval(label string) (time.Duration, error) {
	if len(label) < 2 {
		return 0, fmt.Errorf("invalid bar interval %q", label)
	}
	var n int
	unit := label[len(label)-1]
	if _, err := fmt.Sscanf(label[:len(label)-1], "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid bar interval %q", label)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid bar interval unit %q", label)
	}
}
