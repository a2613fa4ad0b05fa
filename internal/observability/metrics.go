// Package observability exposes Prometheus metrics for the scheduling and
// compliance engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine metric collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ActivityResolutions   *prometheus.CounterVec
	ScheduleSaves         prometheus.Counter
	ComplianceEvaluations prometheus.Counter
	ForecastProjections   prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers all metric collectors.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ActivityResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmops_activity_resolutions_total",
		Help: "Number of activity resolutions performed, by domain",
	}, []string{"domain"})

	m.ScheduleSaves = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmops_schedule_saves_total",
		Help: "Number of full-set schedule saves",
	})

	m.ComplianceEvaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmops_compliance_evaluations_total",
		Help: "Number of compliance evaluations performed",
	})

	m.ForecastProjections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmops_forecast_projections_total",
		Help: "Number of harvest forecast projections computed",
	})

	m.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmops_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	collectors := []prometheus.Collector{
		m.ActivityResolutions,
		m.ScheduleSaves,
		m.ComplianceEvaluations,
		m.ForecastProjections,
		m.RequestDuration,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the underlying registry for the metrics HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
