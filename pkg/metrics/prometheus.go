package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	candlesIngested      *prometheus.CounterVec
	predictionsTotal     *prometheus.CounterVec
	predictionConfidence prometheus.Histogram
	modelAccuracy        prometheus.Gauge
	backtestsTotal       *prometheus.CounterVec
	backtestDuration     prometheus.Histogram
	errorsTotal          *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		candlesIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecast_candles_ingested_total",
				Help: "Total number of candles appended to sessions",
			},
			[]string{"symbol"},
		),
		predictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecast_predictions_total",
				Help: "Total number of predictions produced",
			},
			[]string{"direction"},
		),
		predictionConfidence: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "candlecast_prediction_confidence",
				Help:    "Distribution of prediction confidence",
				Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
			},
		),
		modelAccuracy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "candlecast_model_accuracy",
				Help: "Running directional accuracy of validated predictions",
			},
		),
		backtestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecast_backtests_total",
				Help: "Completed backtest runs by status",
			},
			[]string{"status"},
		),
		backtestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "candlecast_backtest_duration_seconds",
				Help:    "Wall time of backtest runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candlecast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordCandleIngested records one appended candle for a symbol.
func (r *Recorder) RecordCandleIngested(symbol string) {
	r.candlesIngested.WithLabelValues(symbol).Inc()
}

// RecordPrediction records a produced prediction and its confidence.
func (r *Recorder) RecordPrediction(direction string, confidence float64) {
	r.predictionsTotal.WithLabelValues(direction).Inc()
	r.predictionConfidence.Observe(confidence)
}

// RecordModelAccuracy updates the running accuracy gauge.
func (r *Recorder) RecordModelAccuracy(accuracy float64) {
	r.modelAccuracy.Set(accuracy)
}

// RecordBacktest records one finished backtest run.
func (r *Recorder) RecordBacktest(status string, seconds float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
