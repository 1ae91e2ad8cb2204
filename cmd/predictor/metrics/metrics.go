// Package metrics provides Prometheus metrics instrumentation for the predictor.
//
// Metrics exposed:
//   - rnncast_predict_seconds: Histogram of end-to-end prediction latency
//   - rnncast_predictions_total: Counter of /predict requests by outcome
//   - rnncast_cache_requests_total: Counter of prediction cache lookups by result
//   - rnncast_last_prediction: Gauge of the most recent predicted value
//   - rnncast_errors_total: Counter of errors by component and reason
//
// All metrics carry the served model as a constant label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Metrics holds all Prometheus metrics for the predictor.
type Metrics struct {
	PredictSeconds prometheus.Histogram
	Predictions    *prometheus.CounterVec
	CacheRequests  *prometheus.CounterVec
	LastPrediction prometheus.Gauge
	ErrorsTotal    *prometheus.CounterVec
}

// New creates the predictor metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer, model string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"model": model}

	return &Metrics{
		PredictSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "rnncast_predict_seconds",
			Help:        "Time spent producing a prediction",
			ConstLabels: labels,
			Buckets:     []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "rnncast_predictions_total",
			Help:        "Total number of prediction requests by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "rnncast_cache_requests_total",
			Help:        "Total number of prediction cache lookups by result",
			ConstLabels: labels,
		}, []string{"result"}),

		LastPrediction: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "rnncast_last_prediction",
			Help:        "Most recent predicted value in the original unit",
			ConstLabels: labels,
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "rnncast_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

// RecordPredict records the time spent predicting.
func (m *Metrics) RecordPredict(seconds float64) {
	m.PredictSeconds.Observe(seconds)
}

// RecordOutcome increments the prediction counter for outcome.
func (m *Metrics) RecordOutcome(outcome string) {
	m.Predictions.WithLabelValues(outcome).Inc()
}

// RecordCache records a cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// SetLastPrediction sets the most recent predicted value.
func (m *Metrics) SetLastPrediction(value float64) {
	m.LastPrediction.Set(value)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
