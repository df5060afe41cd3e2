package metrics

import (
	"time"

	"backoffice/contexts/leadership-governance/leadership-service/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counts and times every leadership use-case call, labelled by
// operation and outcome.
type Prometheus struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	return &Prometheus{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadership",
			Name:      "operations_total",
			Help:      "leadership operations by outcome",
		}, []string{"operation", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadership",
			Name:      "operation_duration_seconds",
			Help:      "leadership operation latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation"}),
	}
}

func (p *Prometheus) ObserveOperation(operation string, outcome string, duration time.Duration) {
	if p == nil {
		return
	}
	p.operations.WithLabelValues(operation, outcome).Inc()
	p.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Noop discards observations.
type Noop struct{}

func (Noop) ObserveOperation(string, string, time.Duration) {}

var _ ports.Metrics = (*Prometheus)(nil)
var _ ports.Metrics = Noop{}
