package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomName(t *testing.T) {
	cases := []struct {
		raw  string
		want RoomName
	}{
		{"abc", "abc"},
		{"  abc  ", "abc"},
		{"../bad name!!", "badname"},
		{"Room_42-x", "Room_42-x"},
		{"a/b\\c", "abc"},
		{"héllo", "hllo"},
	}
	for _, tc := range cases {
		got, err := NewRoomName(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestNewRoomNameRejectsEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "!!!", "../", "ééé"} {
		_, err := NewRoomName(raw)
		assert.True(t, errors.Is(err, ErrInvalidRoomName), raw)
	}
}

func TestIsForwardable(t *testing.T) {
	for _, typ := range []MessageType{TypeOffer, TypeAnswer, TypeCandidate, TypeBye} {
		assert.True(t, IsForwardable(typ), typ)
	}
	for _, typ := range []MessageType{TypeJoin, TypeJoined, TypePeerJoined, TypeError, "chat", ""} {
		assert.False(t, IsForwardable(typ), typ)
	}
}

func TestNewConnIDUnique(t *testing.T) {
	a, b := NewConnID(), NewConnID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
