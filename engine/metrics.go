package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/alertflow/metric"
)

// Metrics holds engine-level Prometheus metrics, shared across the engines
// the runner creates.
type Metrics struct {
	nodeEvaluations *prometheus.CounterVec
}

// NewMetrics creates and registers engine metrics with the registry
func NewMetrics(registry *metric.Registry) (*Metrics, error) {
	m := &Metrics{
		nodeEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertflow",
			Subsystem: "engine",
			Name:      "node_evaluations_total",
			Help:      "Total node evaluations by node type",
		}, []string{"node_type"}),
	}

	if registry != nil {
		if err := registry.RegisterCounterVec("engine", "node_evaluations_total", m.nodeEvaluations); err != nil {
			return nil, err
		}
	}

	return m, nil
}
