package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market-structure-lab/internal/analysis"
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/marketdata"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Venue symbol, e.g. BTCUSDT (required)")
	interval := flag.String("interval", "15m", "Bar interval: 1m, 5m, 15m, 1h, 4h, 1d")
	candleCount := flag.Int("candles", 500, "Number of candles to analyze")
	useStub := flag.Bool("use-stub", false, "Use the synthetic candle provider")

	// Pipeline parameters
	swingRadius := flag.Int("swing-radius", 0, "Swing detection radius (0 = default)")
	atrPeriod := flag.Int("atr-period", 0, "ATR period (0 = default)")
	minRR := flag.Float64("min-rr", 0, "Minimum risk/reward (0 = default)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[analyze] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}

	barInterval, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatalf("Invalid interval: %v", err)
	}

	cfg := domain.DefaultConfig()
	if *swingRadius > 0 {
		cfg.SwingRadius = *swingRadius
	}
	if *atrPeriod > 0 {
		cfg.ATRPeriod = *atrPeriod
	}
	if *minRR > 0 {
		cfg.MinRiskReward = *minRR
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	asset := domain.Asset{
		ID:          strings.ToLower(*symbol),
		Symbol:      strings.ToUpper(*symbol),
		Exchange:    "binance",
		BarInterval: barInterval,
	}

	var provider marketdata.Provider = marketdata.NewBinanceClient()
	if *useStub {
		provider = marketdata.NewStubProvider()
	}

	fetchCtx, fetchCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer fetchCancel()

	candles, err := provider.FetchCandles(fetchCtx, asset, *candleCount)
	if err != nil {
		logger.Fatalf("Fetch candles: %v", err)
	}
	logger.Printf("Fetched %d candles for %s", len(candles), asset.Symbol)

	signalOut := analysis.Evaluate(asset.ID, candles, cfg)

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(signalOut); err != nil {
			logger.Fatalf("Encode signal: %v", err)
		}
		return
	}

	fmt.Printf("Signal: %s (%s)\n", signalOut.Kind, signalOut.Confidence)
	if signalOut.Kind.Executable() || signalOut.Kind == domain.SignalAwaitingEntry {
		fmt.Printf("Entry: %.5f  Stop: %.5f  Target: %.5f\n",
			signalOut.Entry, signalOut.StopLoss, signalOut.TakeProfit)
		fmt.Printf("Session: %s\n", signalOut.Session)
	}
	for _, reason := range signalOut.Reasons {
		fmt.Printf("  - %s\n", reason)
	}
}
