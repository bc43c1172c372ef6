package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolutions counts finished resolutions by outcome: upstream, mock, invalid, canceled.
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rxprice_resolutions_total",
		Help: "Total number of price resolutions by outcome",
	}, []string{"outcome"})

	// resolutionDuration tracks end-to-end resolution latency.
	resolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rxprice_resolution_duration_seconds",
		Help:    "Time taken to resolve prices by outcome",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"outcome"})

	// upstreamAttempts counts calls to the pricing upstream by endpoint kind and result.
	upstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rxprice_upstream_attempts_total",
		Help: "Total number of upstream calls by endpoint kind and result",
	}, []string{"endpoint", "result"}) // result: ok, transient, http_error, timeout, error

	// upstreamAttemptDuration tracks the latency of single upstream calls.
	upstreamAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rxprice_upstream_attempt_duration_seconds",
		Help:    "Time taken by a single upstream call by endpoint kind",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	// offerCount tracks how many offers a resolution returns.
	offerCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rxprice_resolution_offers_count",
		Help:    "Number of offers returned per resolution",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})
)

// MetricsRecorder provides methods to record engine metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordResolution records a finished resolution.
func (m *MetricsRecorder) RecordResolution(outcome string, duration time.Duration, offers int) {
	resolutions.WithLabelValues(outcome).Inc()
	resolutionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == outcomeUpstream || outcome == outcomeMock {
		offerCount.Observe(float64(offers))
	}
}

// RecordAttempt records one upstream call.
func (m *MetricsRecorder) RecordAttempt(endpoint, result string, duration time.Duration) {
	upstreamAttempts.WithLabelValues(endpoint, result).Inc()
	upstreamAttemptDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
