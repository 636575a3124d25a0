package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

// RouteMetrics implements ports.RouteMetrics with Prometheus collectors.
type RouteMetrics struct {
	lookups          *prometheus.CounterVec
	cacheWriteErrors prometheus.Counter
	upstreamDuration *prometheus.HistogramVec
}

// NewRouteMetrics creates the collectors and registers them with reg.
func NewRouteMetrics(reg prometheus.Registerer) *RouteMetrics {
	m := &RouteMetrics{
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "route_optima_lookups_total",
				Help: "Route lookups by terminal outcome",
			},
			[]string{"outcome"},
		),
		cacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "route_optima_cache_write_errors_total",
			Help: "Failed writes of successful upstream results to the cache",
		}),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "route_optima_upstream_request_duration_seconds",
				Help:    "Latency of route provider calls in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.lookups, m.cacheWriteErrors, m.upstreamDuration)
	return m
}

func (m *RouteMetrics) ObserveOutcome(o route.Outcome) {
	m.lookups.WithLabelValues(string(o)).Inc()
}

func (m *RouteMetrics) ObserveCacheWriteFailure() {
	m.cacheWriteErrors.Inc()
}

func (m *RouteMetrics) ObserveUpstream(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamDuration.WithLabelValues(result).Observe(d.Seconds())
}
