// Package metrics holds the Prometheus collectors of the game server and the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tictactoe"

const (
	DirectionUpstream   = "upstream"
	DirectionDownstream = "downstream"
)

// Metrics owns its own registry so several instances can live in one process (tests).
type Metrics struct {
	Registry *prometheus.Registry

	Connections   prometheus.Gauge
	MovesAccepted prometheus.Counter
	MovesRejected *prometheus.CounterVec
	Resets        prometheus.Counter
	Broadcasts    prometheus.Counter

	RelaySessions        prometheus.Gauge
	UpstreamDialFailures prometheus.Counter
	ForwardedFrames      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "server", Name: "connections",
			Help: "Open connections on the authoritative server.",
		}),
		MovesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "moves_accepted_total",
			Help: "Moves applied to the game state.",
		}),
		MovesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "moves_rejected_total",
			Help: "Moves silently dropped, by reason.",
		}, []string{"reason"}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "resets_total",
			Help: "Game resets.",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "server", Name: "broadcasts_total",
			Help: "Full-state broadcasts.",
		}),

		RelaySessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "relay", Name: "sessions",
			Help: "Live proxy sessions.",
		}),
		UpstreamDialFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay", Name: "upstream_dial_failures_total",
			Help: "Sessions whose upstream could not be established.",
		}),
		ForwardedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "relay", Name: "forwarded_frames_total",
			Help: "Frames forwarded, by direction.",
		}, []string{"direction"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Connections,
		m.MovesAccepted,
		m.MovesRejected,
		m.Resets,
		m.Broadcasts,
		m.RelaySessions,
		m.UpstreamDialFailures,
		m.ForwardedFrames,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
