package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registration service.
type Metrics struct {
	RegistrationsTotal  prometheus.Counter
	RegistrationFailure *prometheus.CounterVec
	RegistrationSeconds prometheus.Histogram
	RateLimitRejections prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enroll_registrations_total",
			Help: "Total number of successfully registered users",
		}),
		RegistrationFailure: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enroll_registration_failures_total",
			Help: "Registration pipeline failures by stage",
		}, []string{"stage"}),
		RegistrationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "enroll_registration_duration_seconds",
			Help:    "End to end registration pipeline duration",
			Buckets: prometheus.DefBuckets,
		}),
		RateLimitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enroll_rate_limit_rejections_total",
			Help: "Registration requests rejected by the rate limiter",
		}),
	}
}

// ObserveSuccess records one completed registration with its duration.
func (m *Metrics) ObserveSuccess(seconds float64) {
	m.RegistrationsTotal.Inc()
	m.RegistrationSeconds.Observe(seconds)
}

// ObserveFailure records one failed registration attributed to a stage.
func (m *Metrics) ObserveFailure(stage string) {
	m.RegistrationFailure.WithLabelValues(stage).Inc()
}
