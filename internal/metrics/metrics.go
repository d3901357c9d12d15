// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theater_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "theater_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theater_authz_decisions_total",
			Help: "Authorization decisions by action and outcome",
		},
		[]string{"action", "allowed", "reason"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "theater_login_attempts_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "theater_cache_hits_total",
		Help: "Response cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "theater_cache_misses_total",
		Help: "Response cache misses",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "theater_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func RecordAuthz(action string, allowed bool, reason string) {
	a := "false"
	if allowed {
		a = "true"
	}
	AuthzDecisions.WithLabelValues(action, a, reason).Inc()
}

func RecordLogin(ok bool) {
	if ok {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}

func RecordCacheHit()  { CacheHits.Inc() }
func RecordCacheMiss() { CacheMisses.Inc() }
