package app

import (
	"context"
	"sync"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Conn   core.SignalConnection
	Room   domain.RoomName
	Alive  bool
	Cancel context.CancelFunc
}

// Registry tracks every open connection, the room it joined and its
// heartbeat state.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

// Bind registers a freshly accepted connection as alive and un-joined.
func (r *Registry) Bind(conn core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = &connEntry{Conn: conn, Alive: true, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn.ID())).Msg("bound connection")
}

// Unbind forgets id. It returns the room the connection was in (empty when
// un-joined) and whether id was bound at all.
func (r *Registry) Unbind(id domain.ConnID) (domain.RoomName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return "", false
	}
	delete(r.conns, id)
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbind connection")
	return e.Room, true
}

func (r *Registry) Get(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomName, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

// SetRoom records the room back-reference. It fails once id is unbound.
func (r *Registry) SetRoom(id domain.ConnID, name domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Room = name
	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Str("room", string(name)).Msg("updated room")
	return true
}

// ClearRoom drops the back-reference and returns the previous room.
func (r *Registry) ClearRoom(id domain.ConnID) (domain.RoomName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.Room == "" {
		return "", false
	}
	prev := e.Room
	e.Room = ""
	return prev, true
}

// ClearRoomIf drops the back-reference only while it still points at name.
func (r *Registry) ClearRoomIf(id domain.ConnID, name domain.RoomName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || e.Room != name {
		return false
	}
	e.Room = ""
	return true
}

// MarkAlive is called whenever a heartbeat response arrives.
func (r *Registry) MarkAlive(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Alive = true
	}
}

// CheckLiveness runs one heartbeat step over all connections: those that
// never answered the previous probe are returned as dead, every other one
// is flipped to unconfirmed and returned for probing.
func (r *Registry) CheckLiveness() (dead, probe []core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.conns {
		if !e.Alive {
			dead = append(dead, e.Conn)
			continue
		}
		e.Alive = false
		probe = append(probe, e.Conn)
	}
	return dead, probe
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
