package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/core/coretest"
	"github.com/dkeye/Rendezvous/internal/domain"
)

func TestGetOrCreateReturnsSameRoom(t *testing.T) {
	m := NewRoomManager()
	r1 := m.GetOrCreate("abc")
	r2 := m.GetOrCreate("abc")
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get("abc")
	assert.True(t, ok)
	assert.Same(t, r1, got)
	_, ok = m.Get("nope")
	assert.False(t, ok)
}

func TestRemoveOnlyMatchingRoom(t *testing.T) {
	m := NewRoomManager()
	old := m.GetOrCreate("abc")
	assert.True(t, m.Remove("abc", old))
	assert.False(t, m.Remove("abc", old))

	fresh := m.GetOrCreate("abc")
	assert.NotSame(t, old, fresh)
	assert.False(t, m.Remove("abc", old), "stale handle must not delete the new room")
	assert.Equal(t, 1, m.Len())
}

func TestListSkipsEmptyRooms(t *testing.T) {
	m := NewRoomManager()
	r := m.GetOrCreate("b-room")
	_, _ = r.AddMember(coretest.NewFakeConn("x"))
	r2 := m.GetOrCreate("a-room")
	_, _ = r2.AddMember(coretest.NewFakeConn("y"))
	_, _ = r2.AddMember(coretest.NewFakeConn("z"))
	m.GetOrCreate("empty")

	assert.Equal(t, []core.RoomInfo{
		{Name: domain.RoomName("a-room"), MemberCount: 2},
		{Name: domain.RoomName("b-room"), MemberCount: 1},
	}, m.List())
	assert.Len(t, m.Rooms(), 3)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	assert.NoError(t, err)
	assert.IsType(t, DropPolicy{}, p)

	p, err = PolicyByName("kick")
	assert.NoError(t, err)
	assert.IsType(t, KickPolicy{}, p)

	_, err = PolicyByName("explode")
	assert.Error(t, err)
}
