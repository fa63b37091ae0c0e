// Package metrics provides Prometheus instrumentation for the QAP1 client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks client-side Prometheus metrics for QAP1 traffic.
//
// All metrics use the rserve_ prefix. Methods are nil-receiver safe so a
// caller that never wires a registry can still call them freely.
type Metrics struct {
	// CommandsTotal counts commands sent by command name and outcome.
	CommandsTotal *prometheus.CounterVec

	// CommandDuration tracks round-trip latency by command name.
	CommandDuration *prometheus.HistogramVec

	// BytesSent counts bytes written to the connection.
	BytesSent prometheus.Counter

	// BytesReceived counts bytes read from the connection.
	BytesReceived prometheus.Counter

	// ServerErrorsTotal counts non-OK replies by mapped error kind.
	ServerErrorsTotal *prometheus.CounterVec

	// ConnectionsOpen tracks the current number of live connections.
	ConnectionsOpen prometheus.Gauge
}

// NewMetrics creates client metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rserve_commands_total",
				Help: "Total QAP1 commands sent by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rserve_command_duration_seconds",
				Help:    "QAP1 command round-trip duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		BytesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rserve_bytes_sent_total",
				Help: "Total bytes written to QAP1 connections",
			},
		),
		BytesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rserve_bytes_received_total",
				Help: "Total bytes read from QAP1 connections",
			},
		),
		ServerErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rserve_server_errors_total",
				Help: "Total non-OK replies by mapped error kind",
			},
			[]string{"kind"},
		),
		ConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rserve_connections_open",
				Help: "Current number of open QAP1 connections",
			},
		),
	}

	reg.MustRegister(
		m.CommandsTotal,
		m.CommandDuration,
		m.BytesSent,
		m.BytesReceived,
		m.ServerErrorsTotal,
		m.ConnectionsOpen,
	)

	return m
}

// RecordCommand records completion of one command.
func (m *Metrics) RecordCommand(command, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(durationSeconds)
}

// RecordBytesSent adds n to the bytes-sent counter.
func (m *Metrics) RecordBytesSent(n int) {
	if m == nil {
		return
	}
	m.BytesSent.Add(float64(n))
}

// RecordBytesReceived adds n to the bytes-received counter.
func (m *Metrics) RecordBytesReceived(n int) {
	if m == nil {
		return
	}
	m.BytesReceived.Add(float64(n))
}

// RecordServerError increments the server-error counter for kind.
func (m *Metrics) RecordServerError(kind string) {
	if m == nil {
		return
	}
	m.ServerErrorsTotal.WithLabelValues(kind).Inc()
}

// IncConnectionsOpen increments the open-connections gauge.
func (m *Metrics) IncConnectionsOpen() {
	if m == nil {
		return
	}
	m.ConnectionsOpen.Inc()
}

// DecConnectionsOpen decrements the open-connections gauge.
func (m *Metrics) DecConnectionsOpen() {
	if m == nil {
		return
	}
	m.ConnectionsOpen.Dec()
}

// NullMetrics returns nil, which acts as a no-op metrics collector. All
// Metrics methods handle a nil receiver gracefully.
func NullMetrics() *Metrics {
	return nil
}
