package runner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/alertflow/metric"
)

// Metrics tracks rule scheduling and run outcomes
type Metrics struct {
	ActiveRules prometheus.Gauge
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
}

// NewMetrics creates runner metrics and registers them on the given registry
func NewMetrics(registry *metric.Registry) (*Metrics, error) {
	m := &Metrics{
		ActiveRules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "alertflow",
			Subsystem: "runner",
			Name:      "active_rules",
			Help:      "Number of loaded rules",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "alertflow",
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Rule runs by rule and outcome",
		}, []string{"rule_id", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "alertflow",
			Subsystem: "runner",
			Name:      "run_duration_seconds",
			Help:      "Rule run duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"rule_id"}),
	}

	if err := registry.RegisterGauge("runner", "active_rules", m.ActiveRules); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("runner", "runs_total", m.RunsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("runner", "run_duration_seconds", m.RunDuration); err != nil {
		return nil, err
	}

	return m, nil
}
