// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eventsTotal                    *prometheus.CounterVec
	providerRequestsTotal          *prometheus.CounterVec
	providerRequestDurationSeconds *prometheus.HistogramVec
	retryWaitsSeconds              *prometheus.HistogramVec
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		eventsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quakewatch_events_total",
				Help: "Total number of events processed, labeled by outcome (fetched, skipped, failed).",
			},
			[]string{"outcome"},
		)

		providerRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quakewatch_provider_requests_total",
				Help: "Total number of provider requests, labeled by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		)

		providerRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quakewatch_provider_request_duration_seconds",
				Help:    "Histogram of provider request latencies, labeled by endpoint.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"endpoint"},
		)

		retryWaitsSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quakewatch_retry_waits_seconds",
				Help:    "Histogram of backoff wait durations, labeled by error kind.",
				Buckets: []float64{1, 2, 4, 8, 10, 20, 30},
			},
			[]string{"kind"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quakewatch_http_requests_total",
				Help: "Total number of API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quakewatch_http_request_duration_seconds",
				Help:    "Histogram of API request latencies, labeled by method and path.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method", "path"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEvent increments the per-event outcome counter.
func ObserveEvent(outcome string) {
	eventsTotal.WithLabelValues(outcome).Inc()
}

// ObserveProviderRequest records one provider request and its latency.
func ObserveProviderRequest(endpoint, outcome string, duration time.Duration) {
	providerRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	providerRequestDurationSeconds.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveRetryWait records the duration of a backoff wait.
func ObserveRetryWait(kind string, duration time.Duration) {
	retryWaitsSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the API request metrics.
func ObserveHTTPRequest(method, path string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, path).Observe(duration.Seconds())
}
