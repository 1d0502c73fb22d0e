package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alertflow",
		Subsystem: "test",
		Name:      "events_total",
		Help:      "test counter",
	})
	require.NoError(t, r.RegisterCounter("test", "events_total", counter))

	// Same key twice is a caller bug.
	require.Error(t, r.RegisterCounter("test", "events_total", counter))

	// The same collector under another key maps to the existing one.
	require.NoError(t, r.RegisterCounter("other", "events_total", counter))

	assert.True(t, r.Unregister("test", "events_total"))
	assert.False(t, r.Unregister("test", "events_total"))
}

func TestRegistryCoreMetricsRegistered(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.Core)

	r.Core.ComponentStatus.WithLabelValues("runner").Set(2)
	r.Core.NATSConnected.Set(1)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["alertflow_component_status"])
	assert.True(t, names["alertflow_nats_connected"])
}

func TestServerDefaults(t *testing.T) {
	s := NewServer("", "", NewRegistry())
	assert.Equal(t, "http://:9090/metrics", s.Address())
}
