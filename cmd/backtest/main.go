package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"market-structure-lab/internal/backtest"
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/marketdata"
	"market-structure-lab/internal/reporting"
	"market-structure-lab/internal/storage/migrations"
	pgstore "market-structure-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Venue symbol, e.g. BTCUSDT (required)")
	interval := flag.String("interval", "15m", "Bar interval: 1m, 5m, 15m, 1h, 4h, 1d")
	days := flag.Int("days", 0, "Backtest window in days (0 = default)")
	useStub := flag.Bool("use-stub", false, "Use the synthetic candle provider")

	// Capital parameters
	capital := flag.Float64("capital", 0, "Initial capital (0 = default)")
	risk := flag.Float64("risk", 0, "Fixed risk per trade (0 = default)")
	tpPriority := flag.Bool("tp-priority", false, "Resolve same-candle stop/target ties in favor of the target")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for run persistence")

	// Output
	reportPath := flag.String("report", "", "Write a markdown report to this path")
	csvPath := flag.String("csv", "", "Write the trade ledger CSV to this path")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}

	barInterval, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatalf("Invalid interval: %v", err)
	}

	cfg := domain.DefaultConfig()
	if *days > 0 {
		cfg.BacktestDays = *days
	}
	if *capital > 0 {
		cfg.InitialCapital = *capital
	}
	if *risk > 0 {
		cfg.RiskPerTrade = *risk
	}
	cfg.TakeProfitPriority = *tpPriority
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

	count := cfg.BacktestDays*asset.BarsPerDay() + cfg.WarmupBuffer
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 5*time.Minute)
	defer fetchCancel()

	candles, err := provider.FetchCandles(fetchCtx, asset, count)
	if err != nil {
		logger.Fatalf("Fetch candles: %v", err)
	}
	logger.Printf("Fetched %d candles for %s", len(candles), asset.Symbol)

	started := time.Now()
	result, err := backtest.New(cfg).Run(asset, candles)
	if err != nil {
		logger.Fatalf("Backtest: %v", err)
	}
	logger.Printf("Simulated %d steps in %s", len(candles)-cfg.WarmupBuffer, time.Since(started).Round(time.Millisecond))

	fmt.Println(result.Summary)

	if *reportPath != "" {
		if err := writeReport(*reportPath, result, reporting.WriteMarkdown); err != nil {
			logger.Fatalf("Write report: %v", err)
		}
		logger.Printf("Report written to %s", *reportPath)
	}
	if *csvPath != "" {
		if err := writeReport(*csvPath, result, reporting.WriteCSV); err != nil {
			logger.Fatalf("Write csv: %v", err)
		}
		logger.Printf("Ledger written to %s", *csvPath)
	}

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Connect postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Run migrations: %v", err)
		}
		if err := pgstore.NewBacktestStore(pool).Insert(ctx, result); err != nil {
			logger.Fatalf("Persist run: %v", err)
		}
		logger.Printf("Run %s persisted", result.RunID)
	}
}

func writeReport(path string, result *domain.BacktestResult, render func(w io.Writer, r *domain.BacktestResult) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(f, result)
}
