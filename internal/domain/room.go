// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

// DefaultRoomName is used when a join carries no room.
const DefaultRoomName RoomName = "default-room"

var ErrInvalidRoomName = errors.New("invalid room name")

type RoomName string

// NewRoomName trims raw and keeps only ASCII letters, digits, '-' and '_'.
// An empty result is rejected.
func NewRoomName(raw string) (RoomName, error) {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if isRoomNameChar(ch) {
			b.WriteByte(ch)
		}
	}
	if b.Len() == 0 {
		return "", ErrInvalidRoomName
	}
	return RoomName(b.String()), nil
}

func isRoomNameChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '_':
		return true
	}
	return false
}
