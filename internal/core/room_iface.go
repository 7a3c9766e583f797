package core

import (
	"errors"

	"github.com/dkeye/Rendezvous/internal/domain"
)

// ErrRoomClosed is returned by AddMember once the room has emptied and
// is waiting to be removed from the table.
var ErrRoomClosed = errors.New("room closed")

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SignalConnection
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID domain.ConnID `json:"id"`
}

// RoomService is the core-facing API of a room.
// It owns the member sequence but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	MemberCount() int
	MembersSnapshot() []MemberDTO
	Closed() bool

	// AddMember appends c unless already present and returns the member count.
	AddMember(c SignalConnection) (int, error)
	// RemoveMember returns the remaining count and whether id was a member.
	RemoveMember(id domain.ConnID) (int, bool)
	// Broadcast sends data to every open member except from.
	Broadcast(from domain.ConnID, data Frame) PublishResult
	// Prune drops members whose transport is no longer open.
	Prune() (removed []domain.ConnID, remaining int)
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	// Remove deletes name only while it still maps to room.
	Remove(name domain.RoomName, room RoomService) bool
	List() []RoomInfo
	// Rooms returns a snapshot of every room currently in the table.
	Rooms() []RoomService
	Len() int
}
