package main

import (
	"context"
	"errors"
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
	"market-structure-lab/internal/storage"
	chstore "market-structure-lab/internal/storage/clickhouse"
	"market-structure-lab/internal/storage/migrations"
	pgstore "market-structure-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Venue symbol, e.g. BTCUSDT (required)")
	interval := flag.String("interval", "15m", "Bar interval: 1m, 5m, 15m, 1h, 4h, 1d")
	count := flag.Int("count", 3000, "Number of historical candles to backfill")
	follow := flag.Bool("follow", false, "Keep appending closed candles from the live stream")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")

	// Observability
	metricsAddr := flag.String("metrics-addr", "", "Prometheus endpoint address, e.g. :9103")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *postgresDSN == "" && *clickhouseDSN == "" {
		logger.Fatal("at least one of --postgres-dsn or --clickhouse-dsn is required")
	}

	barInterval, err := domain.ParseInterval(*interval)
	if err != nil {
		logger.Fatal("invalid interval", zap.Error(err))
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

	asset := domain.Asset{
		ID:          strings.ToLower(*symbol),
		Symbol:      strings.ToUpper(*symbol),
		Exchange:    "binance",
		BarInterval: barInterval,
	}

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go func() {
			if err := observability.ListenAndServe(*metricsAddr); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	stores, cleanup, err := openStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatal("open stores", zap.Error(err))
	}
	defer cleanup()

	client := marketdata.NewBinanceClient()

	// Backfill.
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 10*time.Minute)
	candles, err := client.FetchCandles(fetchCtx, asset, *count)
	fetchCancel()
	if err != nil {
		logger.Fatal("fetch candles", zap.Error(err))
	}
	metrics.CandlesFetched.Add(float64(len(candles)))
	metrics.LastSuccessfulFetch.SetToCurrentTime()

	for _, store := range stores {
		if err := store.InsertBulk(ctx, asset.ID, candles); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatal("store candles", zap.Error(err))
		}
	}
	metrics.CandlesStored.Add(float64(len(candles)))
	logger.Info("backfill complete",
		zap.String("asset", asset.ID),
		zap.Int("candles", len(candles)))

	if !*follow {
		return
	}

	// Live stream.
	stream, err := marketdata.NewKlineStream(ctx, asset, nil)
	if err != nil {
		logger.Fatal("open kline stream", zap.Error(err))
	}
	defer stream.Close()
	logger.Info("following live candles", zap.String("asset", asset.ID))

	for {
		select {
		case <-ctx.Done():
			return
		case candle, ok := <-stream.Candles():
			if !ok {
				return
			}
			for _, store := range stores {
				err := store.InsertBulk(ctx, asset.ID, []domain.Candle{candle})
				if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
					logger.Error("store live candle", zap.Error(err))
					metrics.FetchErrors.WithLabelValues(asset.ID).Inc()
					continue
				}
			}
			metrics.CandlesStored.Inc()
			logger.Info("candle stored",
				zap.String("asset", asset.ID),
				zap.Time("ts", candle.Timestamp),
				zap.Float64("close", candle.Close))
		}
	}
}

// openStores connects every configured backend and runs its migrations.
func openStores(ctx context.Context, postgresDSN, clickhouseDSN string) ([]storage.CandleStore, func(), error) {
	var stores []storage.CandleStore
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		stores = append(stores, pgstore.NewCandleStore(pool))
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { conn.Close() })
		stores = append(stores, chstore.NewCandleStore(conn))
	}

	return stores, cleanup, nil
}
