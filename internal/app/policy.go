package app

import (
	"fmt"

	"github.com/dkeye/Rendezvous/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send buffer overflowed.
// The frame itself is always dropped for that member.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.SignalConnection) BackpressureAction
}

type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.RoomService, core.SignalConnection) BackpressureAction {
	return NoAction
}

type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.RoomService, core.SignalConnection) BackpressureAction {
	return KickMember
}

// PolicyByName maps the backpressure_policy config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", name)
}
