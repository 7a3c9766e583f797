package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/core/coretest"
	"github.com/dkeye/Rendezvous/internal/domain"
)

func ids(conns []core.SignalConnection) []domain.ConnID {
	out := make([]domain.ConnID, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.ID())
	}
	return out
}

func TestRegistryRoomBackReference(t *testing.T) {
	reg := NewRegistry()
	a := coretest.NewFakeConn("a")
	reg.Bind(a, nil)

	_, ok := reg.RoomOf("a")
	assert.False(t, ok, "un-joined until SetRoom")

	require.True(t, reg.SetRoom("a", "abc"))
	room, ok := reg.RoomOf("a")
	require.True(t, ok)
	assert.Equal(t, domain.RoomName("abc"), room)

	prev, ok := reg.ClearRoom("a")
	assert.True(t, ok)
	assert.Equal(t, domain.RoomName("abc"), prev)
	_, ok = reg.ClearRoom("a")
	assert.False(t, ok)

	assert.False(t, reg.SetRoom("missing", "abc"))
}

func TestRegistryUnbindCancelsAndReturnsRoom(t *testing.T) {
	reg := NewRegistry()
	cancelled := false
	reg.Bind(coretest.NewFakeConn("a"), func() { cancelled = true })
	reg.SetRoom("a", "abc")

	room, ok := reg.Unbind("a")
	assert.True(t, ok)
	assert.Equal(t, domain.RoomName("abc"), room)
	assert.True(t, cancelled)
	assert.Equal(t, 0, reg.Len())

	_, ok = reg.Unbind("a")
	assert.False(t, ok)

	reg.Bind(coretest.NewFakeConn("b"), nil)
	room, ok = reg.Unbind("b")
	assert.True(t, ok)
	assert.Empty(t, room)
	assert.False(t, reg.SetRoom("a", "abc"))
}

func TestRegistryHeartbeatStateMachine(t *testing.T) {
	reg := NewRegistry()
	reg.Bind(coretest.NewFakeConn("a"), nil)
	reg.Bind(coretest.NewFakeConn("b"), nil)

	dead, probe := reg.CheckLiveness()
	assert.Empty(t, dead)
	assert.ElementsMatch(t, []domain.ConnID{"a", "b"}, ids(probe))

	// only a answers the probe
	reg.MarkAlive("a")

	dead, probe = reg.CheckLiveness()
	assert.Equal(t, []domain.ConnID{"b"}, ids(dead))
	assert.Equal(t, []domain.ConnID{"a"}, ids(probe))
}

func TestRegistryClearRoomIf(t *testing.T) {
	reg := NewRegistry()
	reg.Bind(coretest.NewFakeConn("a"), nil)
	reg.SetRoom("a", "abc")

	assert.False(t, reg.ClearRoomIf("a", "other"))
	assert.True(t, reg.ClearRoomIf("a", "abc"))
	_, ok := reg.RoomOf("a")
	assert.False(t, ok)
}
