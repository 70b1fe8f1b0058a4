package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// WeatherAPI.com call rate by outcome. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// WeatherAPI.com latency per call. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Weather fetch failures by category (not_found, network, ...). Watch for:
	// not_found is user typo noise, anything else is upstream trouble.
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// Insight model call rate by outcome. Watch for: fallback ratio creeping up.
	InsightCallsTotal *prometheus.CounterVec

	// Insight model latency per call. Generative calls are the slow path; watch p95.
	InsightDuration prometheus.Histogram

	// Fallback insight objects served, by reason (transport, status, parse).
	InsightFallbacksTotal *prometheus.CounterVec

	// Total city lookups accepted by the service layer. rate() gives QPS.
	LookupsTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of WeatherAPI.com calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "WeatherAPI.com latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Weather fetch failures by error category",
		},
		[]string{"category"},
	)
	InsightCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightCallsTotal",
			Help: "Total number of generative insight calls",
		},
		[]string{"status"},
	)
	InsightDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "insightDurationSeconds",
			Help:    "Generative insight call latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20},
		},
	)
	InsightFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insightFallbacksTotal",
			Help: "Fallback insight objects served, by reason",
		},
		[]string{"reason"},
	)
	LookupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookupsTotal",
			Help: "Total number of city lookups",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIErrorsTotal,
		InsightCallsTotal, InsightDuration, InsightFallbacksTotal,
		LookupsTotal, RateLimitDeniedTotal,
	)
}

// StatusLabel maps an HTTP status code to the stable label set used on call
// counters: success, client_error, server_error.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
