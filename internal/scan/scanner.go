// Package scan runs the analysis pipeline across a set of assets with
// per-asset failure isolation.
package scan

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"market-structure-lab/internal/analysis"
	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/marketdata"
	"market-structure-lab/internal/observability"
	"market-structure-lab/internal/storage"
)

// UnitResult is the outcome for one scanned asset. Exactly one of
// Signal and Err is set.
type UnitResult struct {
	Asset  domain.Asset
	Signal *domain.TradeSignal
	Err    error
}

// Scanner evaluates every asset in sequence. One asset failing never
// aborts the run; its error is recorded and the scan moves on.
type Scanner struct {
	provider    marketdata.Provider
	signalStore storage.SignalStore // optional
	metrics     *observability.Metrics
	logger      *zap.Logger

	cfg         domain.Config
	candleCount int
	delay       time.Duration
}

// ScannerOptions contains configuration for creating a Scanner.
type ScannerOptions struct {
	Provider    marketdata.Provider
	SignalStore storage.SignalStore
	Metrics     *observability.Metrics
	Logger      *zap.Logger

	Config      domain.Config
	CandleCount int
	// Delay is the pause between assets, easing venue rate limits.
	Delay time.Duration
}

// NewScanner creates a scanner.
func NewScanner(opts ScannerOptions) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		provider:    opts.Provider,
		signalStore: opts.SignalStore,
		metrics:     opts.Metrics,
		logger:      logger,
		cfg:         opts.Config,
		candleCount: opts.CandleCount,
		delay:       opts.Delay,
	}
}

// Run scans all assets and returns one result per asset, in input
// order. Cancellation is honored between assets, never mid-asset.
func (s *Scanner) Run(ctx context.Context, assets []domain.Asset) ([]UnitResult, error) {
	started := time.Now()
	results := make([]UnitResult, 0, len(assets))

	for i, asset := range assets {
		if i > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		res := s.scanOne(ctx, asset)
		results = append(results, res)

		if res.Err != nil {
			s.logger.Warn("asset scan failed",
				zap.String("asset", asset.ID),
				zap.Error(res.Err))
			if s.metrics != nil {
				s.metrics.ScanUnitErrors.WithLabelValues(asset.ID).Inc()
			}
			continue
		}

		s.logger.Info("asset scanned",
			zap.String("asset", asset.ID),
			zap.String("signal", string(res.Signal.Kind)),
			zap.String("confidence", string(res.Signal.Confidence)))
	}

	if s.metrics != nil {
		s.metrics.ScanRunsTotal.Inc()
		s.metrics.ScanDuration.Observe(time.Since(started).Seconds())
		s.metrics.LastSuccessfulScan.SetToCurrentTime()
	}
	return results, nil
}

// scanOne fetches history, evaluates, and optionally persists the signal.
func (s *Scanner) scanOne(ctx context.Context, asset domain.Asset) UnitResult {
	candles, err := s.provider.FetchCandles(ctx, asset, s.candleCount)
	if err != nil {
		return UnitResult{Asset: asset, Err: err}
	}
	if s.metrics != nil {
		s.metrics.CandlesFetched.Add(float64(len(candles)))
		s.metrics.LastSuccessfulFetch.SetToCurrentTime()
	}

	sig := analysis.Evaluate(asset.ID, candles, s.cfg)
	if s.metrics != nil {
		s.metrics.EvaluationsTotal.Inc()
		s.metrics.SignalsEmitted.WithLabelValues(string(sig.Kind)).Inc()
	}

	if s.signalStore != nil && sig.SignalID != "" {
		if err := s.signalStore.Insert(ctx, &sig); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return UnitResult{Asset: asset, Err: err}
		}
	}

	return UnitResult{Asset: asset, Signal: &sig}
}
