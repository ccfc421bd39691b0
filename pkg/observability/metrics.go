package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Namespace prefixes every metric name.
const Namespace = "switchboard"

// Metrics holds the engine collectors.
type Metrics struct {
	NodeVisits   *prometheus.CounterVec
	NodeErrors   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	Routes       *prometheus.CounterVec
	Checkpoints  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NodeVisits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "node_visits_total",
				Help:      "Total number of node visits",
			},
			[]string{"node"},
		),
		NodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "node_errors_total",
				Help:      "Total number of failed node actions",
			},
			[]string{"node"},
		),
		NodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "node_duration_seconds",
				Help:      "Duration of node actions in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"node"},
		),
		Routes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "routes_total",
				Help:      "Total number of transitions between nodes",
			},
			[]string{"from", "to"},
		),
		Checkpoints: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "checkpoints_total",
				Help:      "Total number of persisted checkpoints",
			},
		),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.NodeErrors.WithLabelValues(e.Node).Inc()
			}
		},
		OnRoute: func(_ context.Context, e *domain.RouteEvent) {
			m.Routes.WithLabelValues(e.From, e.To).Inc()
		},
		OnCheckpoint: func(_ context.Context, _ *domain.CheckpointEvent) {
			m.Checkpoints.Inc()
		},
	}
}
