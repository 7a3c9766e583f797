package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources. Once it has emptied it is
// closed for good and a fresh room must be created under the same name.
type roomImpl struct {
	name    domain.RoomName
	mu      sync.RWMutex
	members []SignalConnection
	closed  bool
}

func NewRoomService(name domain.RoomName) RoomService {
	return &roomImpl{name: name}
}

func (r *roomImpl) Name() domain.RoomName { return r.name }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Closed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *roomImpl) AddMember(c SignalConnection) (int, error) {
	id := c.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRoomClosed
	}

	present := false
	kept := r.members[:0]
	for _, m := range r.members {
		if m.ID() == id {
			present = true
			kept = append(kept, m)
			continue
		}
		if !m.IsOpen() {
			log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("conn", string(m.ID())).Msg("stale member dropped on join")
			continue
		}
		kept = append(kept, m)
	}
	clear(r.members[len(kept):])
	r.members = kept

	if !present {
		r.members = append(r.members, c)
		log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("conn", string(id)).Msg("member added")
	}
	return len(r.members), nil
}

func (r *roomImpl) RemoveMember(id domain.ConnID) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.ID() != id {
			continue
		}
		r.members = slices.Delete(r.members, i, i+1)
		if len(r.members) == 0 {
			r.closed = true
		}
		log.Info().Str("module", "core.room").Str("room", string(r.name)).Str("conn", string(id)).Int("remaining", len(r.members)).Msg("member removed")
		return len(r.members), true
	}
	return len(r.members), false
}

func (r *roomImpl) Broadcast(from domain.ConnID, data Frame) PublishResult {
	r.mu.RLock()
	targets := make([]SignalConnection, 0, len(r.members))
	for _, m := range r.members {
		if m.ID() != from {
			targets = append(targets, m)
		}
	}
	r.mu.RUnlock()

	res := PublishResult{}
	for _, m := range targets {
		if !m.IsOpen() {
			continue
		}
		if err := m.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "core.room").Str("room", string(r.name)).Str("to", string(m.ID())).Msg("broadcast send failed")
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) Prune() ([]domain.ConnID, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []domain.ConnID
	kept := r.members[:0]
	for _, m := range r.members {
		if m.IsOpen() {
			kept = append(kept, m)
			continue
		}
		removed = append(removed, m.ID())
	}
	clear(r.members[len(kept):])
	r.members = kept
	if len(r.members) == 0 {
		r.closed = true
	}
	return removed, len(r.members)
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, MemberDTO{ID: m.ID()})
	}
	return out
}
