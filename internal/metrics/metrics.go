// Package metrics holds the relay's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rendezvous"

// Drop reasons used as the "reason" label of DroppedFrames.
const (
	ReasonMalformed      = "malformed"
	ReasonUnknownType    = "unknown_type"
	ReasonNotJoined      = "not_joined"
	ReasonNotForwardable = "not_forwardable"
	ReasonBackpressure   = "backpressure"
	ReasonRateLimited    = "rate_limited"
)

type Metrics struct {
	Connections     prometheus.Gauge
	Rooms           prometheus.Gauge
	ForwardedFrames *prometheus.CounterVec
	DroppedFrames   *prometheus.CounterVec
	Evictions       prometheus.Counter
	JoinErrors      prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to stay isolated.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open signaling connections.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one member.",
		}),
		ForwardedFrames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarded_frames_total",
			Help:      "Frames relayed to room mates, by message type.",
		}, []string{"type"}),
		DroppedFrames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Inbound or outbound frames dropped, by reason.",
		}, []string{"reason"}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Connections terminated by the liveness sweeper.",
		}),
		JoinErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_errors_total",
			Help:      "Joins rejected because of an invalid room name.",
		}),
		gatherer: reg,
	}
}

// Handler exposes the registry at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
