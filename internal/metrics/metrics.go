// Package metrics holds the Prometheus collectors shared by the dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is created once per process and handed to the components that report.
type Metrics struct {
	Registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamLatency  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	Actions          *prometheus.CounterVec
	LiveClients      prometheus.Gauge
	Sessions         prometheus.Gauge
	Snapshots        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacegui",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the game backend, by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spacegui",
			Name:      "upstream_request_seconds",
			Help:      "Latency of game backend requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacegui",
			Name:      "query_cache_lookups_total",
			Help:      "Query cache lookups by result (hit, miss, shared).",
		}, []string{"result"}),
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacegui",
			Name:      "ship_actions_total",
			Help:      "Ship actions issued from the dashboard, by action and outcome.",
		}, []string{"action", "outcome"}),
		LiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacegui",
			Name:      "live_clients",
			Help:      "Connected live update sockets.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "spacegui",
			Name:      "sessions",
			Help:      "Browser sessions held in memory.",
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spacegui",
			Name:      "collector_snapshots_total",
			Help:      "Credit history snapshots taken by the collector, by outcome.",
		}, []string{"outcome"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.UpstreamRequests,
		m.UpstreamLatency,
		m.CacheLookups,
		m.Actions,
		m.LiveClients,
		m.Sessions,
		m.Snapshots,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
