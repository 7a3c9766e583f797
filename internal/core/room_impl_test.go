package core_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/core/coretest"
	"github.com/dkeye/Rendezvous/internal/core/mocks"
	"github.com/dkeye/Rendezvous/internal/domain"
)

func TestAddMemberCountsAndIsIdempotent(t *testing.T) {
	room := core.NewRoomService("abc")
	a, b := coretest.NewFakeConn("a"), coretest.NewFakeConn("b")

	n, err := room.AddMember(a)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = room.AddMember(b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = room.AddMember(a)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "duplicate join must not duplicate membership")

	assert.Equal(t, []core.MemberDTO{{ID: "a"}, {ID: "b"}}, room.MembersSnapshot())
}

func TestAddMemberDropsStaleMembers(t *testing.T) {
	room := core.NewRoomService("abc")
	a, b := coretest.NewFakeConn("a"), coretest.NewFakeConn("b")
	_, _ = room.AddMember(a)
	a.Drop()

	n, err := room.AddMember(b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []core.MemberDTO{{ID: "b"}}, room.MembersSnapshot())
}

func TestRemoveMemberClosesEmptyRoom(t *testing.T) {
	room := core.NewRoomService("abc")
	a, b := coretest.NewFakeConn("a"), coretest.NewFakeConn("b")
	_, _ = room.AddMember(a)
	_, _ = room.AddMember(b)

	left, ok := room.RemoveMember("a")
	assert.True(t, ok)
	assert.Equal(t, 1, left)
	assert.False(t, room.Closed())

	_, ok = room.RemoveMember("a")
	assert.False(t, ok, "second removal is a no-op")

	left, ok = room.RemoveMember("b")
	assert.True(t, ok)
	assert.Equal(t, 0, left)
	assert.True(t, room.Closed())

	_, err := room.AddMember(coretest.NewFakeConn("c"))
	assert.True(t, errors.Is(err, core.ErrRoomClosed))
}

func TestBroadcastSkipsSenderAndClosedMembers(t *testing.T) {
	room := core.NewRoomService("abc")
	a, b, c := coretest.NewFakeConn("a"), coretest.NewFakeConn("b"), coretest.NewFakeConn("c")
	for _, m := range []*coretest.FakeConn{a, b, c} {
		_, _ = room.AddMember(m)
	}
	c.Drop()

	res := room.Broadcast("a", core.Frame(`{"type":"offer"}`))
	assert.Equal(t, 1, res.SendTo)
	assert.Empty(t, res.Dropped)
	assert.Empty(t, a.Frames())
	assert.Equal(t, []core.Frame{core.Frame(`{"type":"offer"}`)}, b.Frames())
	assert.Empty(t, c.Frames())
}

func TestBroadcastContinuesPastFailedRecipient(t *testing.T) {
	ctrl := gomock.NewController(t)
	room := core.NewRoomService("abc")

	sender := coretest.NewFakeConn("a")
	slow := mocks.NewMockSignalConnection(ctrl)
	slow.EXPECT().ID().Return(domain.ConnID("slow")).AnyTimes()
	slow.EXPECT().IsOpen().Return(true).AnyTimes()
	slow.EXPECT().TrySend(gomock.Any()).Return(core.ErrBackpressure)
	healthy := coretest.NewFakeConn("c")

	_, _ = room.AddMember(sender)
	_, _ = room.AddMember(slow)
	_, _ = room.AddMember(healthy)

	res := room.Broadcast("a", core.Frame(`{"type":"candidate"}`))
	assert.Equal(t, 1, res.SendTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.ConnID("slow"), res.Dropped[0].ID())
	assert.Len(t, healthy.Frames(), 1)
}

func TestPrune(t *testing.T) {
	room := core.NewRoomService("abc")
	a, b := coretest.NewFakeConn("a"), coretest.NewFakeConn("b")
	_, _ = room.AddMember(a)
	_, _ = room.AddMember(b)

	removed, left := room.Prune()
	assert.Empty(t, removed)
	assert.Equal(t, 2, left)

	b.Drop()
	removed, left = room.Prune()
	assert.Equal(t, []domain.ConnID{"b"}, removed)
	assert.Equal(t, 1, left)
	assert.False(t, room.Closed())

	a.Drop()
	removed, left = room.Prune()
	assert.Equal(t, []domain.ConnID{"a"}, removed)
	assert.Equal(t, 0, left)
	assert.True(t, room.Closed())
}

func TestConcurrentJoinAndRemove(t *testing.T) {
	room := core.NewRoomService("abc")
	const n = 50
	conns := make([]*coretest.FakeConn, n)
	for i := range conns {
		conns[i] = coretest.NewFakeConn(string(rune('A' + i)))
	}
	anchor := coretest.NewFakeConn("anchor")
	_, _ = room.AddMember(anchor)

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c *coretest.FakeConn) {
			defer wg.Done()
			_, err := room.AddMember(c)
			assert.NoError(t, err)
			room.RemoveMember(c.ID())
		}(c)
	}
	wg.Wait()
	assert.Equal(t, 1, room.MemberCount())
}
