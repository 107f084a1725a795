package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a dedicated registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	VoteToggles     *prometheus.CounterVec
	ReportsCreated  prometheus.Counter
	FeedCache       *prometheus.CounterVec
	VoteCorrections prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		VoteToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vote_toggles_total",
			Help: "Vote toggles by outcome (voted, unvoted, not_found, error).",
		}, []string{"result"}),
		ReportsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reports_created_total",
			Help: "Reports successfully submitted.",
		}),
		FeedCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_cache_requests_total",
			Help: "Feed cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		VoteCorrections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vote_count_corrections_total",
			Help: "Reports whose stored vote_count was corrected by the reconciler.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}

	m.registry.MustRegister(
		m.VoteToggles,
		m.ReportsCreated,
		m.FeedCache,
		m.VoteCorrections,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
