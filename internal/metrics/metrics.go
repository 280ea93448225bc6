// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GatewayState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trainfinder_gateway_state",
		Help: "Persistence gateway state: 0 disconnected, 1 connecting, 2 connected, 3 degraded",
	})

	ConnectAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trainfinder_store_connect_attempts_total",
		Help: "Remote store connection attempts by result",
	}, []string{"result"})

	ReadFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trainfinder_store_read_fallbacks_total",
		Help: "Reads answered from the schedule catalog instead of the remote store",
	}, []string{"operation", "reason"})

	StoreReadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trainfinder_store_read_seconds",
		Help:    "Remote store read latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trainfinder_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	}, []string{"result"})

	RequestDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       "trainfinder_http_request_seconds",
		Help:       "Time spent serving HTTP requests",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"route", "status"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trainfinder_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter",
	})

	StatusSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trainfinder_status_subscribers",
		Help: "Websocket clients subscribed to gateway status",
	})
)

func init() {
	prometheus.MustRegister(
		GatewayState,
		ConnectAttempts,
		ReadFallbacks,
		StoreReadDuration,
		CacheLookups,
		RequestDuration,
		RateLimited,
		StatusSubscribers,
	)
}
