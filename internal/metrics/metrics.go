// Package metrics provides the centralized Prometheus metrics registry for the analytics core.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "predictions_total",
		Help:      "Total number of predictions served",
	}, []string{"source"}) // engine, cache
	PredictionsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "predictions_skipped_total",
		Help:      "Total number of games skipped for missing ratings",
	})
	CalibrationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "calibration_runs_total",
		Help:      "Total number of calibration runs",
	}, []string{"status"}) // success, failure
	SourceFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "source_fetches_total",
		Help:      "Total number of external source fetches",
	}, []string{"source", "status"}) // ratings/results, success/failure/fallback
	SourceFetchRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "source_fetch_retries_total",
		Help:      "Total number of external fetch retry attempts",
	})
	StreamEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridiron",
		Name:      "stream_events_total",
		Help:      "Total number of live score stream events",
	}, []string{"type"})
)

// Gauge metrics
var (
	CalibrationOverall = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridiron",
		Name:      "calibration_overall",
		Help:      "Overall calibration score for the most recent report per season",
	}, []string{"season"})
	CalibrationSharpness = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridiron",
		Name:      "calibration_sharpness",
		Help:      "Sharpness score for the most recent report per season",
	}, []string{"season"})
	CalibrationReliability = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridiron",
		Name:      "calibration_reliability",
		Help:      "Reliability score for the most recent report per season",
	}, []string{"season"})
)

// Histogram metrics
var (
	PredictionBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gridiron",
		Name:      "prediction_batch_duration_seconds",
		Help:      "Duration of week-level batch prediction in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	CalibrationRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gridiron",
		Name:      "calibration_run_duration_seconds",
		Help:      "Duration of a full-season calibration run in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	})
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gridiron",
		Name:      "source_fetch_duration_seconds",
		Help:      "Duration of external source fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionsSkippedTotal)
		registry.MustRegister(CalibrationRunsTotal)
		registry.MustRegister(SourceFetchesTotal)
		registry.MustRegister(SourceFetchRetriesTotal)
		registry.MustRegister(StreamEventsTotal)

		// Register gauge metrics
		registry.MustRegister(CalibrationOverall)
		registry.MustRegister(CalibrationSharpness)
		registry.MustRegister(CalibrationReliability)

		// Register histogram metrics
		registry.MustRegister(PredictionBatchDuration)
		registry.MustRegister(CalibrationRunDuration)
		registry.MustRegister(SourceFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler. Collectors registered on the
// default registry (promauto package metrics) are served alongside the
// central registry.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordPredictionServed records a served prediction by source.
func RecordPredictionServed(source string) {
	PredictionsTotal.WithLabelValues(source).Inc()
}

// RecordCalibrationRun records a calibration run and its headline scores.
func RecordCalibrationRun(season string, durationSeconds, overall, sharpness, reliability float64) {
	CalibrationRunsTotal.WithLabelValues("success").Inc()
	CalibrationRunDuration.Observe(durationSeconds)
	CalibrationOverall.WithLabelValues(season).Set(overall)
	CalibrationSharpness.WithLabelValues(season).Set(sharpness)
	CalibrationReliability.WithLabelValues(season).Set(reliability)
}
