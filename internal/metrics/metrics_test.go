package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordCommand("eval", "ok", 0.01)
	m.RecordBytesSent(10)
	m.RecordBytesReceived(20)
	m.RecordServerError("AccessDenied")
	m.IncConnectionsOpen()
	m.DecConnectionsOpen()

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCommand("eval", "ok", 0.01)
		m.RecordBytesSent(1)
		m.RecordBytesReceived(1)
		m.RecordServerError("x")
		m.IncConnectionsOpen()
		m.DecConnectionsOpen()
	})
}

func TestNullMetrics(t *testing.T) {
	assert.Nil(t, NullMetrics())
}
