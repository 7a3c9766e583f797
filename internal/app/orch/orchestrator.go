package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/dkeye/Rendezvous/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator owns the room table operations. Connections reach it
// through the signal adapter, the sweeper through Sweep.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Metrics  *metrics.Metrics
}

// OnConnect registers a freshly accepted connection.
func (o *Orchestrator) OnConnect(conn core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Bind(conn, cancel)
	if o.Metrics != nil {
		o.Metrics.Connections.Inc()
	}
}

// OnPong records a heartbeat response.
func (o *Orchestrator) OnPong(id domain.ConnID) {
	o.Registry.MarkAlive(id)
}

// Disconnect is the single exit path for a connection, whether it closed,
// errored or was terminated. Calling it twice is harmless.
func (o *Orchestrator) Disconnect(id domain.ConnID) {
	room, ok := o.Registry.Unbind(id)
	if !ok {
		return
	}
	if room != "" {
		o.leaveRoom(id, room)
	}
	if o.Metrics != nil {
		o.Metrics.Connections.Dec()
	}
}

func (o *Orchestrator) sendJSON(c core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("conn", string(c.ID())).Msg("sendJSON failed")
	}
}

func (o *Orchestrator) broadcastJSON(room core.RoomService, from domain.ConnID, v any) core.PublishResult {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("broadcast marshal")
		return core.PublishResult{}
	}
	return room.Broadcast(from, b)
}

func (o *Orchestrator) dropped(reason string) {
	if o.Metrics != nil {
		o.Metrics.DroppedFrames.WithLabelValues(reason).Inc()
	}
}

func (o *Orchestrator) syncRoomGauge() {
	if o.Metrics != nil {
		o.Metrics.Rooms.Set(float64(len(o.Rooms.List())))
	}
}
