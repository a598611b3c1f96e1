// Package metrics exposes Prometheus collectors for the proxy service.
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
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitRejectionsTotal   prometheus.Counter
	rateLimitStoreErrorsTotal  prometheus.Counter
	upstreamCallsTotal         *prometheus.CounterVec
	upstreamDurationSeconds    *prometheus.HistogramVec
	downloadBytesTotal         *prometheus.CounterVec
	downloadsTotal             *prometheus.CounterVec
	activeDownloads            prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "route"},
		)

		rateLimitRejectionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ytproxy_rate_limit_rejections_total",
				Help: "Total number of requests rejected by the per-client limiter.",
			},
		)

		rateLimitStoreErrorsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ytproxy_rate_limit_store_errors_total",
				Help: "Total number of limiter store failures (requests were let through).",
			},
		)

		upstreamCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytproxy_upstream_calls_total",
				Help: "Total number of platform calls, labeled by operation and outcome.",
			},
			[]string{"op", "outcome"},
		)

		upstreamDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ytproxy_upstream_duration_seconds",
				Help:    "Histogram of platform call latencies, labeled by operation.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"op"},
		)

		downloadBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytproxy_download_bytes_total",
				Help: "Total number of bytes relayed to clients, labeled by class.",
			},
			[]string{"class"},
		)

		downloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytproxy_downloads_total",
				Help: "Total number of proxied downloads, labeled by class and outcome.",
			},
			[]string{"class", "outcome"},
		)

		activeDownloads = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ytproxy_active_downloads",
				Help: "Number of proxied downloads currently streaming.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimited records a rejected request.
func ObserveRateLimited() {
	Init()
	rateLimitRejectionsTotal.Inc()
}

// ObserveRateLimitStoreError records a limiter store failure.
func ObserveRateLimitStoreError() {
	Init()
	rateLimitStoreErrorsTotal.Inc()
}

// ObserveUpstream records one platform call.
func ObserveUpstream(op, outcome string, duration time.Duration) {
	Init()
	upstreamCallsTotal.WithLabelValues(op, outcome).Inc()
	upstreamDurationSeconds.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveDownload records the end of a proxied download.
func ObserveDownload(class, outcome string, bytesRelayed int64) {
	Init()
	downloadsTotal.WithLabelValues(class, outcome).Inc()
	if bytesRelayed > 0 {
		downloadBytesTotal.WithLabelValues(class).Add(float64(bytesRelayed))
	}
}

// IncActiveDownloads increments the active downloads gauge.
func IncActiveDownloads() {
	Init()
	activeDownloads.Inc()
}

// DecActiveDownloads decrements the active downloads gauge.
func DecActiveDownloads() {
	Init()
	activeDownloads.Dec()
}
