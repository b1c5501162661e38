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
	// Backtest metrics
	BacktestsRun      *prometheus.CounterVec
	BacktestDuration  prometheus.Histogram
	TradesSimulated   prometheus.Counter
	PricePointsLoaded prometheus.Counter

	// Live execution metrics
	LiveSessionsStarted prometheus.Counter
	LiveTrades          *prometheus.CounterVec
	LiveSessionPnlEth   prometheus.Gauge

	// Venue metrics
	VenueCallLatency *prometheus.HistogramVec
	VenueCallErrors  *prometheus.CounterVec

	// Market data metrics
	SubgraphQueryLatency *prometheus.HistogramVec
	SubgraphQueryErrors  prometheus.Counter

	// API metrics
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	WSClientsConnected prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "curve_strategy_lab"
	}

	return &Metrics{
		BacktestsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtests run by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of simulated trades across all runs",
		}),
		PricePointsLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "price_points_loaded_total",
			Help:      "Total number of normalized price points fed to the engine",
		}),

		LiveSessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "sessions_started_total",
			Help:      "Total number of live sessions started",
		}),
		LiveTrades: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "trades_total",
			Help:      "Total number of live trade attempts by side and status",
		}, []string{"side", "status"}),
		LiveSessionPnlEth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "session_pnl_eth",
			Help:      "P&L in ETH of the most recently completed live session",
		}),

		VenueCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "call_latency_seconds",
			Help:      "Trade venue call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		VenueCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "venue",
			Name:      "call_errors_total",
			Help:      "Total number of failed trade venue calls",
		}, []string{"method"}),

		SubgraphQueryLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "query_latency_seconds",
			Help:      "Subgraph query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SubgraphQueryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "query_errors_total",
			Help:      "Total number of failed subgraph queries",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, path and code",
		}, []string{"method", "path", "code"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		WSClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "ws_clients_connected",
			Help:      "Number of connected websocket clients",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktest records one backtest run.
func RecordBacktest(status string, durationSeconds float64, trades, points int) {
	DefaultMetrics.BacktestsRun.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
	DefaultMetrics.PricePointsLoaded.Add(float64(points))
}

// RecordLiveSessionStarted increments the live session counter.
func RecordLiveSessionStarted() {
	DefaultMetrics.LiveSessionsStarted.Inc()
}

// RecordLiveTrade records one live trade attempt.
func RecordLiveTrade(side, status string) {
	DefaultMetrics.LiveTrades.WithLabelValues(side, status).Inc()
}

// RecordLiveSessionPnl updates the last-session P&L gauge.
func RecordLiveSessionPnl(pnlEth float64) {
	DefaultMetrics.LiveSessionPnlEth.Set(pnlEth)
}

// RecordVenueCall records a trade venue call.
func RecordVenueCall(method string, seconds float64, err error) {
	DefaultMetrics.VenueCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.VenueCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordSubgraphQuery records a market data query.
func RecordSubgraphQuery(operation string, seconds float64, err error) {
	DefaultMetrics.SubgraphQueryLatency.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.SubgraphQueryErrors.Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
