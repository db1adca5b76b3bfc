// Package metrics provides Prometheus metrics for habla.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls to upstream providers by outcome.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habla",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests",
		},
		[]string{"upstream", "status"},
	)

	// UpstreamDuration measures upstream call latency.
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "habla",
			Name:      "upstream_duration_seconds",
			Help:      "Duration of upstream API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"upstream"},
	)

	// TokensIssued counts realtime session token requests.
	TokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habla",
			Name:      "tokens_issued_total",
			Help:      "Total number of realtime session tokens requested",
		},
		[]string{"status"},
	)

	// HTTPRequests counts API responses by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habla",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		},
		[]string{"route", "code"},
	)

	// CacheLookups counts article cache lookups by result.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habla",
			Name:      "cache_lookups_total",
			Help:      "Total number of article cache lookups",
		},
		[]string{"result"},
	)
)

// RecordUpstream records one upstream call. status is an HTTP status code,
// or 0 when the request never got a response.
func RecordUpstream(upstream string, status int, start time.Time) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	UpstreamRequests.WithLabelValues(upstream, label).Inc()
	UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}

// RecordToken records the outcome of a token request.
func RecordToken(ok bool) {
	if ok {
		TokensIssued.WithLabelValues("ok").Inc()
		return
	}
	TokensIssued.WithLabelValues("error").Inc()
}

// RecordHTTP records one served API response.
func RecordHTTP(route string, code int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// RecordCache records a cache hit or miss.
func RecordCache(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}
