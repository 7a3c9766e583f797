package orch

import (
	"errors"

	"github.com/dkeye/Rendezvous/internal/app"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/dkeye/Rendezvous/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Join sanitizes requested and adds conn to that room. The joiner alone
// gets "joined" with the new count; everyone else gets "peer-joined".
// Clients treat count == 2 as "I initiate".
func (o *Orchestrator) Join(conn core.SignalConnection, requested string) (int, error) {
	id := conn.ID()
	name, err := domain.NewRoomName(requested)
	if err != nil {
		log.Warn().Str("module", "orch").Str("conn", string(id)).Str("requested", requested).Msg("join rejected")
		if o.Metrics != nil {
			o.Metrics.JoinErrors.Inc()
		}
		o.sendJSON(conn, domain.Error(err.Error()))
		return 0, err
	}

	if prev, ok := o.Registry.RoomOf(id); ok && prev != name {
		log.Info().Str("module", "orch").Str("conn", string(id)).Str("from_room", string(prev)).Str("room", string(name)).Msg("switching room")
		o.Leave(id)
	}

	var (
		room  core.RoomService
		count int
	)
	for {
		room = o.Rooms.GetOrCreate(name)
		count, err = room.AddMember(conn)
		if errors.Is(err, core.ErrRoomClosed) {
			// emptied concurrently; drop it and start a fresh one
			o.Rooms.Remove(name, room)
			continue
		}
		break
	}

	if !o.Registry.SetRoom(id, name) {
		// connection went away while joining
		if left, removed := room.RemoveMember(id); removed && left == 0 {
			o.Rooms.Remove(name, room)
		}
		return 0, core.ErrConnClosed
	}

	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(name)).Int("count", count).Msg("joined")
	o.sendJSON(conn, domain.Joined(count))
	o.broadcastJSON(room, id, domain.PeerJoined(count))
	o.syncRoomGauge()
	return count, nil
}

// Leave removes the connection from its room. Remaining members get a
// "joined" with the new count; an emptied room is deleted.
func (o *Orchestrator) Leave(id domain.ConnID) {
	name, ok := o.Registry.ClearRoom(id)
	if !ok {
		return
	}
	o.leaveRoom(id, name)
}

func (o *Orchestrator) leaveRoom(id domain.ConnID, name domain.RoomName) {
	room, ok := o.Rooms.Get(name)
	if !ok {
		return
	}
	left, removed := room.RemoveMember(id)
	if !removed {
		return
	}
	log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(name)).Int("count", left).Msg("left")
	if left == 0 {
		o.Rooms.Remove(name, room)
	} else {
		o.broadcastJSON(room, id, domain.Joined(left))
	}
	o.syncRoomGauge()
}

// Forward relays data verbatim to every other open member of the sender's
// room. Senders outside any room and non-forwardable types are dropped.
func (o *Orchestrator) Forward(id domain.ConnID, typ domain.MessageType, data core.Frame) core.PublishResult {
	name, ok := o.Registry.RoomOf(id)
	if !ok {
		log.Warn().Str("module", "orch").Str("conn", string(id)).Str("type", string(typ)).Msg("signaling without room")
		o.dropped(metrics.ReasonNotJoined)
		return core.PublishResult{}
	}
	if !domain.IsForwardable(typ) {
		log.Debug().Str("module", "orch").Str("conn", string(id)).Str("type", string(typ)).Msg("type not forwardable")
		o.dropped(metrics.ReasonNotForwardable)
		return core.PublishResult{}
	}
	room, ok := o.Rooms.Get(name)
	if !ok || room.Closed() {
		log.Warn().Str("module", "orch").Str("conn", string(id)).Str("room", string(name)).Msg("forward to missing room")
		o.dropped(metrics.ReasonNotJoined)
		return core.PublishResult{}
	}

	res := room.Broadcast(id, data)
	if o.Metrics != nil {
		o.Metrics.ForwardedFrames.WithLabelValues(string(typ)).Add(float64(res.SendTo))
	}
	for _, slow := range res.Dropped {
		o.dropped(metrics.ReasonBackpressure)
		if o.Policy == nil {
			continue
		}
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("conn", string(slow.ID())).Str("room", string(name)).Msg("kicking slow member")
			slow.Terminate()
			o.Disconnect(slow.ID())
		case app.NoAction:
		}
	}
	return res
}

// Prune removes members whose transport is no longer open from every
// room, announces the new count to the survivors and deletes empty rooms.
func (o *Orchestrator) Prune() int {
	total := 0
	for _, room := range o.Rooms.Rooms() {
		removed, left := room.Prune()
		name := room.Name()
		for _, id := range removed {
			o.Registry.ClearRoomIf(id, name)
			log.Info().Str("module", "orch").Str("conn", string(id)).Str("room", string(name)).Msg("pruned stale member")
		}
		total += len(removed)
		if left == 0 {
			o.Rooms.Remove(name, room)
			continue
		}
		if len(removed) > 0 {
			o.broadcastJSON(room, "", domain.Joined(left))
		}
	}
	o.syncRoomGauge()
	return total
}
