package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// appMetrics holds the collectors exposed at /metrics. Each server owns its
// registry so that several servers can live in one process.
type appMetrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	recordsCreated *prometheus.CounterVec
	habitToggles   prometheus.Counter
	chatReplies    prometheus.Counter
	rateLimitHits  prometheus.Counter
	suspicious     prometheus.Counter
	authFailures   *prometheus.CounterVec
}

func newAppMetrics() *appMetrics {
	m := &appMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prodash_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prodash_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prodash_records_created_total",
			Help: "Records created through the API by collection.",
		}, []string{"collection"}),
		habitToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prodash_habit_toggles_total",
			Help: "Habit completion toggles.",
		}),
		chatReplies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prodash_chat_replies_total",
			Help: "Assistant replies returned to users.",
		}),
		rateLimitHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prodash_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prodash_suspicious_requests_total",
			Help: "Requests matching known attack patterns.",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prodash_auth_failures_total",
			Help: "Rejected authentication attempts by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.recordsCreated, m.habitToggles,
		m.chatReplies, m.rateLimitHits, m.suspicious, m.authFailures,
	)
	return m
}

// observe is the trace middleware hook.
func (m *appMetrics) observe(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *appMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
