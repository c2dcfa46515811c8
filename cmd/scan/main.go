package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/marketdata"
	"market-structure-lab/internal/observability"
	"market-structure-lab/internal/scan"
	"market-structure-lab/internal/storage"
	"market-structure-lab/internal/storage/migrations"
	pgstore "market-structure-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	symbols := flag.String("symbols", "", "Comma-separated venue symbols, e.g. BTCUSDT,ETHUSDT (required)")
	interval := flag.String("interval", "15m", "Bar interval: 1m, 5m, 15m, 1h, 4h, 1d")
	candleCount := flag.Int("candles", 500, "Number of candles per asset")
	delay := flag.Duration("delay", 500*time.Millisecond, "Pause between assets")
	loop := flag.Duration("loop", 0, "Rescan continuously with this period (0 = scan once)")
	useStub := flag.Bool("use-stub", false, "Use the synthetic candle provider")

	// Storage and observability
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for signal persistence")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus endpoint address, e.g. :9102")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *symbols == "" {
		logger.Fatal("--symbols is required")
	}

	barInterval, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatal("invalid interval", zap.Error(err))
	}

	cfg := domain.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	var assets []domain.Asset
	for _, sym := range strings.Split(*symbols, ",") {
		sym = strings.TrimSpace(sym)
		if sym == "" {
			continue
		}
		assets = append(assets, domain.Asset{
			ID:          strings.ToLower(sym),
			Symbol:      strings.ToUpper(sym),
			Exchange:    "binance",
			BarInterval: barInterval,
		})
	}
	if len(assets) == 0 {
		logger.Fatal("no valid symbols supplied")
	}

	var provider marketdata.Provider = marketdata.NewBinanceClient()
	if *useStub {
		provider = marketdata.NewStubProvider()
	}

	var signalStore storage.SignalStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
		signalStore = pgstore.NewSignalStore(pool)
	}

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go func() {
			if err := observability.ListenAndServe(*metricsAddr); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
		logger.Info("metrics endpoint started", zap.String("addr", *metricsAddr))
	}

	scanner := scan.NewScanner(scan.ScannerOptions{
		Provider:    provider,
		SignalStore: signalStore,
		Metrics:     metrics,
		Logger:      logger,
		Config:      cfg,
		CandleCount: *candleCount,
		Delay:       *delay,
	})

	for {
		results, err := scanner.Run(ctx, assets)
		if err != nil {
			logger.Info("scan interrupted", zap.Error(err))
			return
		}

		executable := 0
		for _, r := range results {
			if r.Signal != nil && r.Signal.Kind.Executable() {
				executable++
			}
		}
		logger.Info("scan complete",
			zap.Int("assets", len(results)),
			zap.Int("executable_signals", executable))

		if *loop <= 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(*loop):
		}
	}
}
