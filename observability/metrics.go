package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type contractMetrics struct {
	executions *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	queries    *prometheus.CounterVec
}

type gatewayMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	contractMetricsOnce sync.Once
	contractRegistry    *contractMetrics

	gatewayMetricsOnce sync.Once
	gatewayRegistry    *gatewayMetrics
)

// Contract returns the lazily-initialised registry recording executed
// messages and queries.
func Contract() *contractMetrics {
	contractMetricsOnce.Do(func() {
		contractRegistry = &contractMetrics{
			executions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "contract",
				Name:      "executions_total",
				Help:      "Executed messages segmented by message kind and outcome.",
			}, []string{"kind", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "contract",
				Name:      "errors_total",
				Help:      "Rejected messages segmented by message kind and error kind.",
			}, []string{"kind", "error"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "passage",
				Subsystem: "contract",
				Name:      "execute_duration_seconds",
				Help:      "Latency distribution of message execution including commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"kind"}),
			queries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "contract",
				Name:      "queries_total",
				Help:      "Served queries segmented by query kind and outcome.",
			}, []string{"kind", "outcome"}),
		}
		prometheus.MustRegister(
			contractRegistry.executions,
			contractRegistry.errors,
			contractRegistry.latency,
			contractRegistry.queries,
		)
	})
	return contractRegistry
}

// ObserveExecute records one executed message. errKind is empty on success.
func (m *contractMetrics) ObserveExecute(kind, errKind string, duration time.Duration) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	outcome := "success"
	if errKind != "" {
		outcome = "error"
		m.errors.WithLabelValues(kind, errKind).Inc()
	}
	m.executions.WithLabelValues(kind, outcome).Inc()
	m.latency.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveQuery records one served query.
func (m *contractMetrics) ObserveQuery(kind string, err error) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.queries.WithLabelValues(kind, outcome).Inc()
}

// Gateway returns the registry for the HTTP gateway.
func Gateway() *gatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayRegistry = &gatewayMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Gateway requests segmented by route, method and outcome.",
			}, []string{"route", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "gateway",
				Name:      "errors_total",
				Help:      "Gateway errors segmented by route, method and status code.",
			}, []string{"route", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "passage",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for gateway handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "passage",
				Subsystem: "gateway",
				Name:      "throttles_total",
				Help:      "Requests rejected by throttling policies.",
			}, []string{"route", "reason"}),
		}
		prometheus.MustRegister(
			gatewayRegistry.requests,
			gatewayRegistry.errors,
			gatewayRegistry.latency,
			gatewayRegistry.throttles,
		)
	})
	return gatewayRegistry
}

// Observe records the outcome of a gateway request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *gatewayMetrics) Observe(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(route, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(route, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied route and
// reason. Reasons should be stable strings such as "rate_limit".
func (m *gatewayMetrics) RecordThrottle(route, reason string) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(route, reason).Inc()
}
