package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for go/no-go checks.
type Metrics struct {
	Registry *prometheus.Registry

	ChecksTotal      *prometheus.CounterVec // labels: verdict={go,caution,no-go,error}
	FactorLevels     *prometheus.CounterVec // labels: factor, level
	CheckDuration    prometheus.Histogram
	UpstreamRequests *prometheus.CounterVec   // labels: upstream, outcome={success,error,rejected}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream
	GeocodeCache     *prometheus.CounterVec   // labels: result={hit,miss}
	VerdictChanges   prometheus.Counter
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a private registry,
// so tests can build as many as they like.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_check",
			Name:      "checks_total",
			Help:      "Go/no-go checks by overall verdict.",
		}, []string{"verdict"}),
		FactorLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_check",
			Name:      "factor_levels_total",
			Help:      "Per-factor assessments by level.",
		}, []string{"factor", "level"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flight_check",
			Name:      "check_duration_seconds",
			Help:      "Duration of a complete geocode-to-recommendation check.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_check",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by provider and outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flight_check",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flight_check",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		VerdictChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flight_check",
			Name:      "verdict_changes_total",
			Help:      "Locations whose overall verdict changed since the previous run.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flight_check",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed agent run.",
		}),
	}

	m.Registry.MustRegister(
		m.ChecksTotal,
		m.FactorLevels,
		m.CheckDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.GeocodeCache,
		m.VerdictChanges,
		m.LastRunTimestamp,
	)
	return m
}

// ObserveUpstream matches upstream.Observer.
func (m *Metrics) ObserveUpstream(name, outcome string, d time.Duration) {
	m.UpstreamRequests.WithLabelValues(name, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(name).Observe(d.Seconds())
}
