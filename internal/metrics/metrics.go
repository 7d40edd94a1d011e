// Package metrics provides Prometheus instrumentation for the client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one client instance.
type Metrics struct {
	// Wire traffic
	LinesTotal    *prometheus.CounterVec // direction: in, out
	MessagesTotal *prometheus.CounterVec // direction: in, out
	ParseErrors   prometheus.Counter

	// Events delivered to subscribers
	EventsTotal *prometheus.CounterVec // kind: message, join, snapshot, ...

	// Connection lifecycle
	ConnectsTotal    *prometheus.CounterVec // status: success, error
	DisconnectsTotal *prometheus.CounterVec // reason: local, remote, line_too_long, error
	Connected        prometheus.Gauge

	// Registration
	Registered  prometheus.Gauge
	NickRetries prometheus.Counter

	// Outbound pacing
	QueueDepth prometheus.Gauge
}

// New creates all metrics and registers them with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LinesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "lines_total",
				Help:      "Total number of protocol lines by direction",
			},
			[]string{"direction"},
		),
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "messages_total",
				Help:      "Total number of chat messages by direction",
			},
			[]string{"direction"},
		),
		ParseErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "parse_errors_total",
				Help:      "Total number of inbound lines dropped as unparseable",
			},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "events_total",
				Help:      "Total number of events delivered to subscribers by kind",
			},
			[]string{"kind"},
		),
		ConnectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "connects_total",
				Help:      "Total number of connection attempts by status",
			},
			[]string{"status"},
		),
		DisconnectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "disconnects_total",
				Help:      "Total number of closed connections by reason",
			},
			[]string{"reason"},
		),
		Connected: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ircclient",
				Name:      "connected",
				Help:      "Whether a connection is currently open (0 or 1)",
			},
		),
		Registered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ircclient",
				Name:      "registered",
				Help:      "Whether the connection has completed registration (0 or 1)",
			},
		),
		NickRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "ircclient",
				Name:      "nick_retries_total",
				Help:      "Total number of nick collision retries",
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ircclient",
				Name:      "outbound_queue_depth",
				Help:      "Number of lines waiting in the outbound queue",
			},
		),
	}
}
