package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches       *prometheus.CounterVec
	forecasts     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	trainDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_fetches_total",
				Help: "Total number of market data fetches",
			},
			[]string{"symbol"},
		),
		forecasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecasts_total",
				Help: "Total number of forecasts produced",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		trainDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockcast_train_duration_seconds",
				Help:    "Duration of model training runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
		),
	}
}

// RecordFetch records a completed market data fetch.
func (r *Recorder) RecordFetch(symbol string) {
	r.fetches.WithLabelValues(symbol).Inc()
}

// RecordForecast records a produced forecast.
func (r *Recorder) RecordForecast(symbol string) {
	r.forecasts.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordTrainDuration records a training run duration in seconds.
func (r *Recorder) RecordTrainDuration(seconds float64) {
	r.trainDuration.Observe(seconds)
}

// Noop discards all recordings. Used in tests and when metrics are off.
type Noop struct{}

func (Noop) RecordFetch(string)              {}
func (Noop) RecordForecast(string)           {}
func (Noop) RecordError(string)              {}
func (Noop) RecordLastPrice(string, float64) {}
func (Noop) RecordLatency(string, float64)   {}
func (Noop) RecordTrainDuration(float64)     {}
