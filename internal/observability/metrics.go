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
	// Sync metrics
	DrawsFetched      prometheus.Counter
	DrawsInserted     prometheus.Counter
	FetchErrors       *prometheus.CounterVec
	APICallLatency    prometheus.Histogram
	LatestDrawID      prometheus.Gauge
	SuggestionsScored prometheus.Counter

	// Model metrics
	ModelsResolved   *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	TrainingRows     prometheus.Gauge

	// Prediction metrics
	PredictionsTotal *prometheus.CounterVec

	// Backtest metrics
	BacktestIterations prometheus.Counter
	BacktestHits       prometheus.Histogram
	BacktestRunsTotal  *prometheus.CounterVec
	BacktestDuration   prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulSync     prometheus.Gauge
	LastSuccessfulBacktest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "lotofacil_lab"
	}

	return &Metrics{
		// Sync metrics
		DrawsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "draws_fetched_total",
			Help:      "Total number of draws fetched from the results API",
		}),
		DrawsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "draws_inserted_total",
			Help:      "Total number of draws newly stored",
		}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed result fetches by kind",
		}, []string{"kind"}),
		APICallLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "api_call_latency_seconds",
			Help:      "Results API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		LatestDrawID: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "latest_draw_id",
			Help:      "Newest draw id in storage",
		}),
		SuggestionsScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "suggestions_scored_total",
			Help:      "Total number of saved suggestions scored against official results",
		}),

		// Model metrics
		ModelsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "resolved_total",
			Help:      "Per-number models resolved by outcome (loaded, trained, ephemeral)",
		}, []string{"outcome"}),
		TrainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "training_duration_seconds",
			Help:      "Duration of a single per-number model fit in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		TrainingRows: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "model",
			Name:      "training_rows",
			Help:      "Feature rows used by the most recent fit",
		}),

		// Prediction metrics
		PredictionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prediction",
			Name:      "requests_total",
			Help:      "Total number of live predictions by status",
		}, []string{"status"}),

		// Backtest metrics
		BacktestIterations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "iterations_total",
			Help:      "Total number of walk-forward iterations evaluated",
		}),
		BacktestHits: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "hits",
			Help:      "Hit count per walk-forward iteration",
			Buckets:   prometheus.LinearBuckets(5, 1, 11),
		}),
		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Database metrics
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

		// Health metrics
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of last successful draw sync",
		}),
		LastSuccessfulBacktest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_backtest_timestamp",
			Help:      "Unix timestamp of last completed backtest",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDrawFetched counts one fetched draw and whether it was new.
func RecordDrawFetched(inserted bool) {
	DefaultMetrics.DrawsFetched.Inc()
	if inserted {
		DefaultMetrics.DrawsInserted.Inc()
	}
}

// RecordFetchError records a failed fetch.
func RecordFetchError(kind string) {
	DefaultMetrics.FetchErrors.WithLabelValues(kind).Inc()
}

// RecordAPILatency records results API call latency.
func RecordAPILatency(seconds float64) {
	DefaultMetrics.APICallLatency.Observe(seconds)
}

// RecordSyncCompleted updates health gauges after a sync pass.
func RecordSyncCompleted(latestDrawID int64, unixSeconds float64) {
	DefaultMetrics.LatestDrawID.Set(float64(latestDrawID))
	DefaultMetrics.LastSuccessfulSync.Set(unixSeconds)
}

// RecordSuggestionsScored counts scored suggestions.
func RecordSuggestionsScored(n int) {
	DefaultMetrics.SuggestionsScored.Add(float64(n))
}

// RecordModelResolved records how a per-number model was obtained.
func RecordModelResolved(outcome string) {
	DefaultMetrics.ModelsResolved.WithLabelValues(outcome).Inc()
}

// RecordTraining records one model fit.
func RecordTraining(rows int, seconds float64) {
	DefaultMetrics.TrainingRows.Set(float64(rows))
	DefaultMetrics.TrainingDuration.Observe(seconds)
}

// RecordPrediction records a live prediction outcome.
func RecordPrediction(status string) {
	DefaultMetrics.PredictionsTotal.WithLabelValues(status).Inc()
}

// RecordBacktestIteration records one walk-forward iteration.
func RecordBacktestIteration(hits int) {
	DefaultMetrics.BacktestIterations.Inc()
	DefaultMetrics.BacktestHits.Observe(float64(hits))
}

// RecordBacktestRun records a finished backtest run.
func RecordBacktestRun(status string, durationSeconds float64) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordBacktestCompleted updates the backtest health gauge.
func RecordBacktestCompleted(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulBacktest.Set(unixSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
