// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	CandlesFetched prometheus.Counter
	CandlesStored  prometheus.Counter
	FetchErrors    *prometheus.CounterVec

	// Analysis metrics
	EvaluationsTotal  prometheus.Counter
	SignalsEmitted    *prometheus.CounterVec
	StructuralEvents  *prometheus.CounterVec
	PendingSlotFilled prometheus.Gauge

	// Scan metrics
	ScanRunsTotal  prometheus.Counter
	ScanUnitErrors *prometheus.CounterVec
	ScanDuration   prometheus.Histogram

	// Backtest metrics
	BacktestRunsTotal prometheus.Counter
	BacktestDuration  prometheus.Histogram

	// Health metrics
	LastSuccessfulFetch prometheus.Gauge
	LastSuccessfulScan  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "market_structure_lab"
	}

	return &Metrics{
		CandlesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "candles_fetched_total",
			Help:      "Total number of candles fetched from venues",
		}),
		CandlesStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "candles_stored_total",
			Help:      "Total number of candles stored to the database",
		}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "fetch_errors_total",
			Help:      "Total number of candle fetch failures",
		}, []string{"asset"}),

		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "evaluations_total",
			Help:      "Total number of signal evaluations executed",
		}),
		SignalsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "signals_emitted_total",
			Help:      "Total number of signals emitted by kind",
		}, []string{"kind"}),
		StructuralEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "structural_events_total",
			Help:      "Total number of structural events detected by kind",
		}, []string{"kind"}),
		PendingSlotFilled: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "pending_slot_filled",
			Help:      "Whether the pending entry slot is currently occupied (0 or 1)",
		}),

		ScanRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of multi-asset scan runs",
		}),
		ScanUnitErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "unit_errors_total",
			Help:      "Total number of per-asset scan failures",
		}, []string{"asset"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of full scan runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		BacktestRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs completed",
		}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Duration of backtest runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),

		LastSuccessfulFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of the last successful candle fetch",
		}),
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of the last successful scan run",
		}),
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe starts the metrics endpoint on addr.
func ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
