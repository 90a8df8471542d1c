package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// UI and API request rate by route template and status class.
	HTTPRequestsTotal *prometheus.CounterVec

	// UI and API request latency, including the upstream lookup for search routes.
	HTTPRequestDuration *prometheus.HistogramVec

	// Requests currently being served.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap calls by outcome (success, not_found, api_error, no_response, request_setup_error).
	WeatherAPICallsTotal *prometheus.CounterVec

	// OpenWeatherMap latency by outcome.
	WeatherAPIDuration *prometheus.HistogramVec

	// Settled searches by outcome: success, an error kind, or superseded.
	SearchOutcomesTotal *prometheus.CounterVec

	// Recent-search storage failures by operation (load, persist). They never reach the user.
	RecentStoreErrorsTotal *prometheus.CounterVec
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
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchOutcomesTotal",
			Help: "Settled weather searches by outcome",
		},
		[]string{"outcome"},
	)
	RecentStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recentStoreErrorsTotal",
			Help: "Recent-search storage failures by operation",
		},
		[]string{"op"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration,
		SearchOutcomesTotal, RecentStoreErrorsTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
